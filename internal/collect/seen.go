package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// SeenSet remembers source URLs that need no further collection.
type SeenSet interface {
	Seen(ctx context.Context, url string) (bool, error)
	Mark(ctx context.Context, url string) error
}

// URLChecker is satisfied by the storage layer.
type URLChecker interface {
	ArticleExistsByURL(ctx context.Context, url string) (bool, error)
}

// StoreSeen treats every stored article as seen. Mark is a no-op: storing the
// article is what marks it.
type StoreSeen struct {
	Store URLChecker
}

func (s StoreSeen) Seen(ctx context.Context, url string) (bool, error) {
	return s.Store.ArticleExistsByURL(ctx, url)
}

func (StoreSeen) Mark(context.Context, string) error { return nil }

// ValkeySeen keeps seen URLs in a valkey set, which also covers articles the
// filter rejected and therefore never stored.
type ValkeySeen struct {
	client valkey.Client
	key    string
}

// NewValkeySeen connects to addr and pings it.
func NewValkeySeen(ctx context.Context, addr, password, key string) (*ValkeySeen, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:      []string{addr},
		Password:         password,
		ConnWriteTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping: %w", err)
	}
	return &ValkeySeen{client: client, key: key}, nil
}

func (v *ValkeySeen) Seen(ctx context.Context, url string) (bool, error) {
	return v.client.Do(ctx, v.client.B().Sismember().Key(v.key).Member(url).Build()).AsBool()
}

func (v *ValkeySeen) Mark(ctx context.Context, url string) error {
	return v.client.Do(ctx, v.client.B().Sadd().Key(v.key).Member(url).Build()).Error()
}

func (v *ValkeySeen) Close() {
	v.client.Close()
}

// Chain reports a URL as seen when any member does and marks it in all.
type Chain []SeenSet

func (c Chain) Seen(ctx context.Context, url string) (bool, error) {
	for _, s := range c {
		ok, err := s.Seen(ctx, url)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (c Chain) Mark(ctx context.Context, url string) error {
	for _, s := range c {
		if err := s.Mark(ctx, url); err != nil {
			return err
		}
	}
	return nil
}
