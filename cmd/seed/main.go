package main

import (
	"context"
	"time"

	"crateapi/internal/app"
	"crateapi/internal/config"
	"crateapi/internal/logging"
	"crateapi/internal/review"
)

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, closeStore, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("open corpus store")
	}
	defer closeStore()

	n, err := seed(ctx, store, fixtures())
	if err != nil {
		logging.Fatal().Err(err).Msg("seed corpus")
	}
	logging.Info().Int("rows", n).Msg("corpus seeded")
}

// seed upserts items and returns how many were written.
func seed(ctx context.Context, repo review.Repository, items []review.Item) (int, error) {
	for i := range items {
		if err := repo.Upsert(ctx, &items[i]); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

func fixtures() []review.Item {
	type row struct{ reviewer, creator, name, url string }
	rows := []row{
		{"pitchfork", "Slowdive", "Souvlaki", "https://pitchfork.com/reviews/albums/slowdive-souvlaki/"},
		{"pitchfork", "My Bloody Valentine", "Loveless", "https://pitchfork.com/reviews/albums/my-bloody-valentine-loveless/"},
		{"pitchfork", "Grouper", "Shade", "https://pitchfork.com/reviews/albums/grouper-shade/"},
		{"pitchfork", "Low", "HEY WHAT", "https://pitchfork.com/reviews/albums/low-hey-what/"},
		{"pitchfork", "Duster", "Stratosphere", "https://pitchfork.com/reviews/albums/duster-stratosphere/"},
		{"pitchfork", "Cocteau Twins", "Heaven or Las Vegas", "https://pitchfork.com/reviews/albums/cocteau-twins-heaven-or-las-vegas/"},
		{"quietus", "Jessica Pratt", "Here in the Pitch", "https://thequietus.com/culture/reviews/jessica-pratt-here-in-the-pitch/"},
		{"quietus", "Sunn O)))", "Life Metal", "https://thequietus.com/articles/26404-sunn-o-life-metal-review/"},
		{"quietus", "Arthur Russell", "World of Echo", "https://thequietus.com/articles/arthur-russell-world-of-echo/"},
		{"quietus", "Beth Gibbons", "Lives Outgrown", "https://thequietus.com/culture/reviews/beth-gibbons-lives-outgrown/"},
		{"wire", "Sarah Davachi", "Cantus, Descant", "https://www.thewire.co.uk/issues/sarah-davachi"},
		{"wire", "Tim Hecker", "Virgins", "https://www.thewire.co.uk/issues/tim-hecker"},
		{"wire", "Alice Coltrane", "Journey in Satchidananda", "https://www.thewire.co.uk/issues/alice-coltrane"},
	}

	items := make([]review.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, review.Item{
			Reviewer:  r.reviewer,
			Creator:   r.creator,
			Name:      r.name,
			Service:   "spotify",
			ReviewURL: r.url,
		})
	}
	return items
}
