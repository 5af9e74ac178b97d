package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/market"
)

func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}

func newQuoteCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "quote <symbol>",
		Short: "Fetch a quote through the configured providers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := zap.NewNop().Sugar()

			yahoo := market.NewYahoo(cfg.Market.YahooBaseURL)
			alphaVantage := market.NewAlphaVantage(cfg.Market.AlphaVantageURL, cfg.Market.AlphaVantageKey, cfg.Market.AlphaVantageRPM, logger)
			quotes, err := market.NewQuoteService(cfg.Market.QuoteTTL, yahoo, logger, yahoo, alphaVantage)
			if err != nil {
				return err
			}
			defer quotes.Close()

			ctx, cancel := commandContext(cmd, timeout)
			defer cancel()

			quote, err := quotes.Quote(ctx, args[0])
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), quote)
			}
			fmt.Fprintln(cmd.OutOrStdout(), market.FormatPrice(quote))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")
	return cmd
}

func newNewsCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "news <ticker or query>",
		Short: "Search headlines through the news provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			client := market.NewNewsClient(cfg.Market.RapidAPIHost, cfg.Market.RapidAPIKey)
			if !client.Configured() {
				return fmt.Errorf("news: RAPIDAPI_KEY is not set: %w", market.ErrNotConfigured)
			}
			news := market.NewNewsService(client, market.NewMemoryNewsCache(cfg.Market.NewsTTL))

			ctx, cancel := commandContext(cmd, timeout)
			defer cancel()

			articles, err := news.Search(ctx, args[0])
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), articles)
			}
			fmt.Fprintln(cmd.OutOrStdout(), market.FormatArticles(articles))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")
	return cmd
}
