package countries

var reference = []Country{
	{ISO3: "USA", Name: "United States of America", Aliases: []string{"United States", "US", "U.S.", "U.S.A.", "America", "American", "Americans", "Washington D.C.", "Biden", "Trump", "White House"}},
	{ISO3: "CAN", Name: "Canada", Aliases: []string{"Canadian", "Canadians", "Ottawa", "Trudeau", "Canadian government"}},
	{ISO3: "MEX", Name: "Mexico", Aliases: []string{"Mexican", "Mexicans", "Mexico City", "Sheinbaum", "AMLO", "López Obrador", "Mexican government"}},
	{ISO3: "GBR", Name: "United Kingdom", Aliases: []string{"UK", "U.K.", "Britain", "British", "Great Britain", "England", "English", "Scotland", "Scottish", "Wales", "Welsh", "London", "Westminster", "Downing Street", "Northern Ireland"}},
	{ISO3: "FRA", Name: "France", Aliases: []string{"French", "Paris", "Macron", "Élysée", "Elysee", "Francais"}},
	{ISO3: "DEU", Name: "Germany", Aliases: []string{"German", "Germans", "Berlin", "Scholz", "Merkel", "Bundestag", "Deutschland", "Federal Republic of Germany"}},
	{ISO3: "ITA", Name: "Italy", Aliases: []string{"Italian", "Italians", "Rome", "Roma", "Meloni", "Italia"}},
	{ISO3: "ESP", Name: "Spain", Aliases: []string{"Spanish", "Spaniard", "Madrid", "España", "Sanchez"}},
	{ISO3: "PRT", Name: "Portugal", Aliases: []string{"Portuguese", "Lisbon", "Lisboa"}},
	{ISO3: "NLD", Name: "Netherlands", Aliases: []string{"Dutch", "Holland", "Amsterdam", "The Hague", "Den Haag"}},
	{ISO3: "BEL", Name: "Belgium", Aliases: []string{"Belgian", "Brussels", "Bruxelles", "Brussel"}},
	{ISO3: "AUT", Name: "Austria", Aliases: []string{"Austrian", "Vienna", "Wien"}},
	{ISO3: "CHE", Name: "Switzerland", Aliases: []string{"Swiss", "Bern", "Geneva", "Genève", "Zurich", "Zürich", "Helvetia"}},
	{ISO3: "IRL", Name: "Ireland", Aliases: []string{"Irish", "Dublin", "Éire", "Republic of Ireland"}},
	{ISO3: "LUX", Name: "Luxembourg", Aliases: []string{"Luxembourgish", "Luxembourger"}},
	{ISO3: "SWE", Name: "Sweden", Aliases: []string{"Swedish", "Swede", "Swedes", "Stockholm"}},
	{ISO3: "NOR", Name: "Norway", Aliases: []string{"Norwegian", "Oslo", "Norge"}},
	{ISO3: "DNK", Name: "Denmark", Aliases: []string{"Danish", "Dane", "Danes", "Copenhagen", "København"}},
	{ISO3: "FIN", Name: "Finland", Aliases: []string{"Finnish", "Finn", "Finns", "Helsinki", "Suomi"}},
	{ISO3: "ISL", Name: "Iceland", Aliases: []string{"Icelandic", "Icelander", "Reykjavik", "Reykjavík"}},
	{ISO3: "POL", Name: "Poland", Aliases: []string{"Polish", "Pole", "Poles", "Warsaw", "Warszawa", "Polska"}},
	{ISO3: "CZE", Name: "Czech Republic", Aliases: []string{"Czech", "Czechia", "Prague", "Praha"}},
	{ISO3: "SVK", Name: "Slovakia", Aliases: []string{"Slovak", "Slovakian", "Bratislava"}},
	{ISO3: "HUN", Name: "Hungary", Aliases: []string{"Hungarian", "Budapest", "Orban", "Orbán", "Magyar"}},
	{ISO3: "ROU", Name: "Romania", Aliases: []string{"Romanian", "Bucharest", "București"}},
	{ISO3: "BGR", Name: "Bulgaria", Aliases: []string{"Bulgarian", "Sofia", "Sofiya"}},
	{ISO3: "UKR", Name: "Ukraine", Aliases: []string{"Ukrainian", "Ukrainians", "Kyiv", "Kiev", "Zelensky", "Zelenskyy", "Zelenskiy"}},
	{ISO3: "BLR", Name: "Belarus", Aliases: []string{"Belarusian", "Belorussian", "Minsk", "Lukashenko"}},
	{ISO3: "MDA", Name: "Moldova", Aliases: []string{"Moldovan", "Chisinau", "Chișinău"}},
	{ISO3: "GRC", Name: "Greece", Aliases: []string{"Greek", "Greeks", "Athens", "Athina", "Hellenic"}},
	{ISO3: "SRB", Name: "Serbia", Aliases: []string{"Serbian", "Serb", "Serbs", "Belgrade", "Beograd"}},
	{ISO3: "HRV", Name: "Croatia", Aliases: []string{"Croatian", "Croat", "Croats", "Zagreb", "Hrvatska"}},
	{ISO3: "SVN", Name: "Slovenia", Aliases: []string{"Slovenian", "Slovene", "Ljubljana"}},
	{ISO3: "BIH", Name: "Bosnia and Herzegovina", Aliases: []string{"Bosnian", "Herzegovinian", "Sarajevo", "Bosnia"}},
	{ISO3: "MNE", Name: "Montenegro", Aliases: []string{"Montenegrin", "Podgorica"}},
	{ISO3: "MKD", Name: "North Macedonia", Aliases: []string{"Macedonian", "Skopje", "Macedonia", "FYROM"}},
	{ISO3: "ALB", Name: "Albania", Aliases: []string{"Albanian", "Tirana", "Tiranë"}},
	{ISO3: "XKX", Name: "Kosovo", Aliases: []string{"Kosovar", "Pristina", "Prishtina", "Prishtinë"}},
	{ISO3: "EST", Name: "Estonia", Aliases: []string{"Estonian", "Tallinn", "Eesti"}},
	{ISO3: "LVA", Name: "Latvia", Aliases: []string{"Latvian", "Riga", "Latvija"}},
	{ISO3: "LTU", Name: "Lithuania", Aliases: []string{"Lithuanian", "Vilnius", "Lietuva"}},
	{ISO3: "RUS", Name: "Russia", Aliases: []string{"Russian", "Russians", "Moscow", "Moskva", "Putin", "Kremlin", "Russian Federation"}},
	{ISO3: "KAZ", Name: "Kazakhstan", Aliases: []string{"Kazakh", "Astana", "Nur-Sultan", "Almaty"}},
	{ISO3: "UZB", Name: "Uzbekistan", Aliases: []string{"Uzbek", "Tashkent"}},
	{ISO3: "TKM", Name: "Turkmenistan", Aliases: []string{"Turkmen", "Ashgabat"}},
	{ISO3: "KGZ", Name: "Kyrgyzstan", Aliases: []string{"Kyrgyz", "Bishkek"}},
	{ISO3: "TJK", Name: "Tajikistan", Aliases: []string{"Tajik", "Dushanbe"}},
	{ISO3: "AZE", Name: "Azerbaijan", Aliases: []string{"Azerbaijani", "Azeri", "Baku"}},
	{ISO3: "GEO", Name: "Georgia", Aliases: []string{"Georgian", "Tbilisi"}},
	{ISO3: "ARM", Name: "Armenia", Aliases: []string{"Armenian", "Yerevan"}},
	{ISO3: "ISR", Name: "Israel", Aliases: []string{"Israeli", "Israelis", "Tel Aviv", "Jerusalem", "Netanyahu", "IDF", "Knesset"}},
	{ISO3: "PSE", Name: "Palestine", Aliases: []string{"Palestinian", "Palestinians", "Gaza", "West Bank", "Ramallah", "Hamas", "Palestinian Authority"}},
	{ISO3: "LBN", Name: "Lebanon", Aliases: []string{"Lebanese", "Beirut", "Hezbollah"}},
	{ISO3: "SYR", Name: "Syria", Aliases: []string{"Syrian", "Syrians", "Damascus", "Assad"}},
	{ISO3: "JOR", Name: "Jordan", Aliases: []string{"Jordanian", "Amman"}},
	{ISO3: "IRQ", Name: "Iraq", Aliases: []string{"Iraqi", "Iraqis", "Baghdad"}},
	{ISO3: "IRN", Name: "Iran", Aliases: []string{"Iranian", "Iranians", "Tehran", "Khamenei", "Persian", "Islamic Republic of Iran"}},
	{ISO3: "SAU", Name: "Saudi Arabia", Aliases: []string{"Saudi", "Saudis", "Riyadh", "MBS", "Mohammed bin Salman", "Kingdom of Saudi Arabia", "KSA"}},
	{ISO3: "ARE", Name: "United Arab Emirates", Aliases: []string{"UAE", "Emirati", "Emirates", "Dubai", "Abu Dhabi"}},
	{ISO3: "QAT", Name: "Qatar", Aliases: []string{"Qatari", "Doha"}},
	{ISO3: "KWT", Name: "Kuwait", Aliases: []string{"Kuwaiti", "Kuwait City"}},
	{ISO3: "BHR", Name: "Bahrain", Aliases: []string{"Bahraini", "Manama"}},
	{ISO3: "OMN", Name: "Oman", Aliases: []string{"Omani", "Muscat"}},
	{ISO3: "YEM", Name: "Yemen", Aliases: []string{"Yemeni", "Sanaa", "Sana'a", "Houthi", "Houthis"}},
	{ISO3: "TUR", Name: "Turkey", Aliases: []string{"Turkish", "Turk", "Turks", "Ankara", "Istanbul", "Erdogan", "Erdoğan", "Türkiye"}},
	{ISO3: "CYP", Name: "Cyprus", Aliases: []string{"Cypriot", "Nicosia"}},
	{ISO3: "CHN", Name: "China", Aliases: []string{"Chinese", "Beijing", "Peking", "PRC", "People's Republic of China", "Xi Jinping", "CCP", "Communist Party of China"}},
	{ISO3: "JPN", Name: "Japan", Aliases: []string{"Japanese", "Tokyo", "Nippon", "Nihon"}},
	{ISO3: "KOR", Name: "South Korea", Aliases: []string{"Korean", "South Korean", "Seoul", "Republic of Korea", "ROK"}},
	{ISO3: "PRK", Name: "North Korea", Aliases: []string{"North Korean", "Pyongyang", "DPRK", "Democratic People's Republic of Korea", "Kim Jong Un", "Kim Jong-un"}},
	{ISO3: "TWN", Name: "Taiwan", Aliases: []string{"Taiwanese", "Taipei", "Republic of China", "ROC"}},
	{ISO3: "MNG", Name: "Mongolia", Aliases: []string{"Mongolian", "Ulaanbaatar"}},
	{ISO3: "HKG", Name: "Hong Kong", Aliases: []string{"Hong Konger", "HK"}},
	{ISO3: "MAC", Name: "Macau", Aliases: []string{"Macanese", "Macao"}},
	{ISO3: "VNM", Name: "Vietnam", Aliases: []string{"Vietnamese", "Hanoi", "Ho Chi Minh City", "Saigon"}},
	{ISO3: "THA", Name: "Thailand", Aliases: []string{"Thai", "Bangkok", "Siam"}},
	{ISO3: "PHL", Name: "Philippines", Aliases: []string{"Filipino", "Philippine", "Filipinos", "Manila", "Duterte", "Marcos"}},
	{ISO3: "IDN", Name: "Indonesia", Aliases: []string{"Indonesian", "Jakarta"}},
	{ISO3: "MYS", Name: "Malaysia", Aliases: []string{"Malaysian", "Kuala Lumpur"}},
	{ISO3: "SGP", Name: "Singapore", Aliases: []string{"Singaporean"}},
	{ISO3: "MMR", Name: "Myanmar", Aliases: []string{"Burmese", "Burma", "Naypyidaw", "Rangoon", "Yangon"}},
	{ISO3: "KHM", Name: "Cambodia", Aliases: []string{"Cambodian", "Khmer", "Phnom Penh"}},
	{ISO3: "LAO", Name: "Laos", Aliases: []string{"Laotian", "Lao", "Vientiane"}},
	{ISO3: "BRN", Name: "Brunei", Aliases: []string{"Bruneian", "Bandar Seri Begawan"}},
	{ISO3: "TLS", Name: "Timor-Leste", Aliases: []string{"East Timorese", "East Timor", "Dili"}},
	{ISO3: "IND", Name: "India", Aliases: []string{"Indian", "Indians", "New Delhi", "Delhi", "Modi", "BJP"}},
	{ISO3: "PAK", Name: "Pakistan", Aliases: []string{"Pakistani", "Pakistanis", "Islamabad", "Karachi"}},
	{ISO3: "BGD", Name: "Bangladesh", Aliases: []string{"Bangladeshi", "Dhaka"}},
	{ISO3: "LKA", Name: "Sri Lanka", Aliases: []string{"Sri Lankan", "Colombo", "Ceylon"}},
	{ISO3: "NPL", Name: "Nepal", Aliases: []string{"Nepali", "Nepalese", "Kathmandu"}},
	{ISO3: "BTN", Name: "Bhutan", Aliases: []string{"Bhutanese", "Thimphu"}},
	{ISO3: "MDV", Name: "Maldives", Aliases: []string{"Maldivian", "Malé"}},
	{ISO3: "AFG", Name: "Afghanistan", Aliases: []string{"Afghan", "Afghans", "Kabul", "Taliban"}},
	{ISO3: "AUS", Name: "Australia", Aliases: []string{"Australian", "Australians", "Canberra", "Sydney", "Melbourne"}},
	{ISO3: "NZL", Name: "New Zealand", Aliases: []string{"New Zealander", "Wellington", "Auckland"}},
	{ISO3: "PNG", Name: "Papua New Guinea", Aliases: []string{"Papua New Guinean", "Port Moresby"}},
	{ISO3: "FJI", Name: "Fiji", Aliases: []string{"Fijian", "Suva"}},
	{ISO3: "EGY", Name: "Egypt", Aliases: []string{"Egyptian", "Egyptians", "Cairo", "Sisi", "el-Sisi"}},
	{ISO3: "LBY", Name: "Libya", Aliases: []string{"Libyan", "Tripoli", "Benghazi"}},
	{ISO3: "TUN", Name: "Tunisia", Aliases: []string{"Tunisian", "Tunis"}},
	{ISO3: "DZA", Name: "Algeria", Aliases: []string{"Algerian", "Algiers"}},
	{ISO3: "MAR", Name: "Morocco", Aliases: []string{"Moroccan", "Rabat", "Casablanca"}},
	{ISO3: "SDN", Name: "Sudan", Aliases: []string{"Sudanese", "Khartoum"}},
	{ISO3: "SSD", Name: "South Sudan", Aliases: []string{"South Sudanese", "Juba"}},
	{ISO3: "NGA", Name: "Nigeria", Aliases: []string{"Nigerian", "Nigerians", "Abuja", "Lagos"}},
	{ISO3: "ZAF", Name: "South Africa", Aliases: []string{"South African", "Pretoria", "Cape Town", "Johannesburg"}},
	{ISO3: "KEN", Name: "Kenya", Aliases: []string{"Kenyan", "Nairobi"}},
	{ISO3: "ETH", Name: "Ethiopia", Aliases: []string{"Ethiopian", "Addis Ababa"}},
	{ISO3: "GHA", Name: "Ghana", Aliases: []string{"Ghanaian", "Accra"}},
	{ISO3: "TZA", Name: "Tanzania", Aliases: []string{"Tanzanian", "Dodoma", "Dar es Salaam"}},
	{ISO3: "UGA", Name: "Uganda", Aliases: []string{"Ugandan", "Kampala"}},
	{ISO3: "RWA", Name: "Rwanda", Aliases: []string{"Rwandan", "Kigali"}},
	{ISO3: "COD", Name: "Democratic Republic of the Congo", Aliases: []string{"Congolese", "DRC", "DR Congo", "Kinshasa", "Democratic Republic of Congo"}},
	{ISO3: "COG", Name: "Republic of the Congo", Aliases: []string{"Brazzaville", "Congo-Brazzaville"}},
	{ISO3: "AGO", Name: "Angola", Aliases: []string{"Angolan", "Luanda"}},
	{ISO3: "MOZ", Name: "Mozambique", Aliases: []string{"Mozambican", "Maputo"}},
	{ISO3: "ZWE", Name: "Zimbabwe", Aliases: []string{"Zimbabwean", "Harare"}},
	{ISO3: "ZMB", Name: "Zambia", Aliases: []string{"Zambian", "Lusaka"}},
	{ISO3: "BWA", Name: "Botswana", Aliases: []string{"Motswana", "Batswana", "Gaborone"}},
	{ISO3: "NAM", Name: "Namibia", Aliases: []string{"Namibian", "Windhoek"}},
	{ISO3: "SEN", Name: "Senegal", Aliases: []string{"Senegalese", "Dakar"}},
	{ISO3: "CIV", Name: "Ivory Coast", Aliases: []string{"Ivorian", "Côte d'Ivoire", "Cote d Ivoire", "Abidjan", "Yamoussoukro"}},
	{ISO3: "CMR", Name: "Cameroon", Aliases: []string{"Cameroonian", "Yaoundé", "Yaounde"}},
	{ISO3: "MLI", Name: "Mali", Aliases: []string{"Malian", "Bamako"}},
	{ISO3: "BFA", Name: "Burkina Faso", Aliases: []string{"Burkinabe", "Ouagadougou"}},
	{ISO3: "NER", Name: "Niger", Aliases: []string{"Nigerien", "Niamey"}},
	{ISO3: "TCD", Name: "Chad", Aliases: []string{"Chadian", "N'Djamena", "Ndjamena"}},
	{ISO3: "SOM", Name: "Somalia", Aliases: []string{"Somali", "Mogadishu"}},
	{ISO3: "ERI", Name: "Eritrea", Aliases: []string{"Eritrean", "Asmara"}},
	{ISO3: "DJI", Name: "Djibouti", Aliases: []string{"Djiboutian"}},
	{ISO3: "BRA", Name: "Brazil", Aliases: []string{"Brazilian", "Brazilians", "Brasilia", "Brasília", "São Paulo", "Sao Paulo", "Lula"}},
	{ISO3: "ARG", Name: "Argentina", Aliases: []string{"Argentine", "Argentinian", "Buenos Aires", "Milei"}},
	{ISO3: "COL", Name: "Colombia", Aliases: []string{"Colombian", "Bogota", "Bogotá"}},
	{ISO3: "PER", Name: "Peru", Aliases: []string{"Peruvian", "Lima"}},
	{ISO3: "VEN", Name: "Venezuela", Aliases: []string{"Venezuelan", "Caracas", "Maduro"}},
	{ISO3: "CHL", Name: "Chile", Aliases: []string{"Chilean", "Santiago"}},
	{ISO3: "ECU", Name: "Ecuador", Aliases: []string{"Ecuadorian", "Quito", "Guayaquil"}},
	{ISO3: "BOL", Name: "Bolivia", Aliases: []string{"Bolivian", "La Paz", "Sucre"}},
	{ISO3: "PRY", Name: "Paraguay", Aliases: []string{"Paraguayan", "Asunción", "Asuncion"}},
	{ISO3: "URY", Name: "Uruguay", Aliases: []string{"Uruguayan", "Montevideo"}},
	{ISO3: "GUY", Name: "Guyana", Aliases: []string{"Guyanese", "Georgetown"}},
	{ISO3: "SUR", Name: "Suriname", Aliases: []string{"Surinamese", "Paramaribo"}},
	{ISO3: "CUB", Name: "Cuba", Aliases: []string{"Cuban", "Havana", "Habana"}},
	{ISO3: "HTI", Name: "Haiti", Aliases: []string{"Haitian", "Port-au-Prince"}},
	{ISO3: "DOM", Name: "Dominican Republic", Aliases: []string{"Dominican", "Santo Domingo"}},
	{ISO3: "JAM", Name: "Jamaica", Aliases: []string{"Jamaican", "Kingston"}},
	{ISO3: "PAN", Name: "Panama", Aliases: []string{"Panamanian", "Panama City"}},
	{ISO3: "CRI", Name: "Costa Rica", Aliases: []string{"Costa Rican", "San José", "San Jose"}},
	{ISO3: "GTM", Name: "Guatemala", Aliases: []string{"Guatemalan", "Guatemala City"}},
	{ISO3: "HND", Name: "Honduras", Aliases: []string{"Honduran", "Tegucigalpa"}},
	{ISO3: "SLV", Name: "El Salvador", Aliases: []string{"Salvadoran", "San Salvador", "Bukele"}},
	{ISO3: "NIC", Name: "Nicaragua", Aliases: []string{"Nicaraguan", "Managua", "Ortega"}},
	{ISO3: "BLZ", Name: "Belize", Aliases: []string{"Belizean", "Belmopan"}},
	{ISO3: "VAT", Name: "Vatican City", Aliases: []string{"Vatican", "Holy See", "Pope", "Papal"}},
}
