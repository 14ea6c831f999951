package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

const articleColumns = `news_id, news_title, news_text, article_summary, publication_date,
	source_url, source_domain, source_country, language, language_detected,
	date_scraped, classification_status`

// InsertArticle stores a new article with status pending and returns its
// news_id. A source URL that is already stored yields ErrDuplicateArticle.
func (db *DB) InsertArticle(ctx context.Context, a NewArticle) (int64, error) {
	lang := a.Language
	if lang == "" {
		lang = "en"
	}
	var id int64
	err := db.conn.QueryRowContext(ctx, db.rebind(`
		INSERT INTO articles (news_title, news_text, publication_date, source_url,
			source_domain, source_country, language, language_detected, date_scraped,
			classification_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_url) DO NOTHING
		RETURNING news_id`),
		a.Title, a.Text, a.PublicationDate, a.SourceURL,
		a.SourceDomain, a.SourceCountry, lang, a.LanguageDetected, now(),
		StatusPending,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("inserting %s: %w", a.SourceURL, ErrDuplicateArticle)
	}
	if err != nil {
		return 0, wrapErr("inserting article", err)
	}
	return id, nil
}

// ArticleExistsByURL reports whether an article with the URL is stored.
func (db *DB) ArticleExistsByURL(ctx context.Context, url string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		db.rebind("SELECT COUNT(*) FROM articles WHERE source_url = ?"), url).Scan(&n)
	if err != nil {
		return false, wrapErr("checking article url", err)
	}
	return n > 0, nil
}

// SetClassificationStatus moves an article to a new classification state.
func (db *DB) SetClassificationStatus(ctx context.Context, newsID int64, status string) error {
	switch status {
	case StatusPending, StatusClassified, StatusFailed:
	default:
		return fmt.Errorf("unknown classification status %q", status)
	}
	res, err := db.conn.ExecContext(ctx,
		db.rebind("UPDATE articles SET classification_status = ? WHERE news_id = ?"), status, newsID)
	if err != nil {
		return wrapErr("updating classification status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("article %d: %w", newsID, sql.ErrNoRows)
	}
	return nil
}

// GetArticleByID retrieves an article. Returns nil if not found.
func (db *DB) GetArticleByID(ctx context.Context, newsID int64) (*Article, error) {
	row := db.conn.QueryRowContext(ctx,
		db.rebind("SELECT "+articleColumns+" FROM articles WHERE news_id = ?"), newsID)
	return scanArticle(row)
}

// GetArticleByURL retrieves an article by source URL. Returns nil if not found.
func (db *DB) GetArticleByURL(ctx context.Context, url string) (*Article, error) {
	row := db.conn.QueryRowContext(ctx,
		db.rebind("SELECT "+articleColumns+" FROM articles WHERE source_url = ?"), url)
	return scanArticle(row)
}

// ListArticles returns articles newest first.
func (db *DB) ListArticles(ctx context.Context, f ArticleFilter) ([]Article, error) {
	q := db.sb.Select(articleColumns).From("articles").OrderBy("news_id DESC")
	if f.Status != "" {
		q = q.Where(sq.Eq{"classification_status": f.Status})
	}
	if f.Country != "" {
		q = q.Where(sq.Eq{"source_country": f.Country})
	}
	q = paginate(q, f.Limit, f.Offset)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building article query: %w", err)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("listing articles", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

func paginate(q sq.SelectBuilder, limit, offset int) sq.SelectBuilder {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	q = q.Limit(uint64(limit))
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}
	return q
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticleInto(s rowScanner, a *Article) error {
	return s.Scan(&a.NewsID, &a.Title, &a.Text, &a.Summary, &a.PublicationDate,
		&a.SourceURL, &a.SourceDomain, &a.SourceCountry, &a.Language, &a.LanguageDetected,
		&a.DateScraped, &a.ClassificationStatus)
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var a Article
		if err := scanArticleInto(rows, &a); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func scanArticle(row *sql.Row) (*Article, error) {
	var a Article
	err := scanArticleInto(row, &a)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("reading article", err)
	}
	return &a, nil
}
