package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"spreadwatch/internal/curve"

	tele "gopkg.in/telebot.v3"
)

func StartTelegramBot(curveService *curve.Service) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/spread", func(c tele.Context) error {
		snapshot, err := curveService.Latest(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching latest spread: %v", err))
		}
		if snapshot == nil {
			return c.Send("No snapshots yet")
		}
		msg := fmt.Sprintf(
			"Term spread %s\nSpread: %.4f pts\nFront APY: %.4f%% (%s)\nBack APY: %.4f%% (%s)\nUnderlying APY: %.4f%%\nMarkets: %d",
			snapshot.Date, snapshot.TermSpread,
			snapshot.FrontMonthAPY, snapshot.FrontExpiry,
			snapshot.BackMonthAPY, snapshot.BackExpiry,
			snapshot.UnderlyingAPY, snapshot.MarketsCount,
		)
		return c.Send(msg)
	})

	b.Handle("/history", func(c tele.Context) error {
		days := 7
		if args := c.Args(); len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return c.Send("Usage: /history 7")
			}
			days = n
		}
		snapshots, err := curveService.History(context.Background(), days)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching history: %v", err))
		}
		if len(snapshots) == 0 {
			return c.Send("No snapshots yet")
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "Term spread, last %d day(s):\n", days)
		for _, s := range snapshots {
			fmt.Fprintf(&sb, "%s  %.4f pts  (%d markets)\n", s.Date, s.TermSpread, s.MarketsCount)
		}
		return c.Send(sb.String())
	})

	b.Handle("/stats", func(c tele.Context) error {
		stats, err := curveService.Stats(context.Background(), 90)
		if err != nil {
			return c.Send(fmt.Sprintf("Error computing stats: %v", err))
		}
		if stats.Count == 0 {
			return c.Send("No snapshots yet")
		}
		msg := fmt.Sprintf(
			"Spread stats, last %d snapshot(s):\nLatest: %.4f pts (z=%.2f)\nMean: %.4f  Std: %.4f\nEMA: %.4f\nRange: %.4f .. %.4f",
			stats.Count, stats.Latest, stats.ZScore,
			stats.Mean, stats.StdDev, stats.EMA,
			stats.Min, stats.Max,
		)
		return c.Send(msg)
	})

	log.Println("Telegram bot started")
	go b.Start()
}
