package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sessgauge/internal/cli/output"
	"github.com/yndnr/sessgauge/internal/server/httpserver/handler"
)

// StatsCommand fetches session statistics from a running server.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Print session statistics of a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Server address",
				EnvVars: []string{"SESSGAUGE_SERVER"},
				Value:   "http://127.0.0.1:8080",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output format: table, json, yaml",
				Value:   string(output.FormatTable),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: 10 * time.Second,
			},
		},
		Action: runStats,
	}
}

func runStats(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"), output.FormatTable)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	stats, err := fetchStats(ctx, c.String("server"))
	if err != nil {
		return err
	}
	if format != output.FormatTable {
		return output.Encode(c.App.Writer, format, stats)
	}
	return printStats(c.App.Writer, stats)
}

// fetchStats calls GET /admin/v1/sessions/stats on the server at base.
func fetchStats(ctx context.Context, base string) (*handler.StatsResponse, error) {
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	url := strings.TrimRight(base, "/") + "/admin/v1/sessions/stats"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var envelope struct {
		Code    string                `json:"code"`
		Message string                `json:"message"`
		Data    handler.StatsResponse `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d: [%s] %s", resp.StatusCode, envelope.Code, envelope.Message)
	}
	return &envelope.Data, nil
}

func printStats(w io.Writer, stats *handler.StatsResponse) error {
	if !stats.Started {
		_, err := fmt.Fprintln(w, "server not started")
		return err
	}

	table := output.NewTable("CONTEXT", "ACTIVE", "MAX", "EXPIRED", "REJECTED")
	for _, ctx := range stats.Contexts {
		limit := ""
		if ctx.MaxSessions != nil {
			limit = strconv.Itoa(*ctx.MaxSessions)
			if *ctx.MaxSessions < 0 {
				limit = "unlimited"
			}
		}
		table.AddRow(ctx.Path, strconv.Itoa(ctx.ActiveSessions), limit,
			formatCount(ctx.ExpiredSessions), formatCount(ctx.RejectedSessions))
	}
	if err := table.Render(w); err != nil {
		return err
	}

	if len(stats.Readings) == 0 {
		return nil
	}
	names := make([]string, 0, len(stats.Readings))
	for name := range stats.Readings {
		names = append(names, name)
	}
	sort.Strings(names)

	readings := output.NewTable("READING", "VALUE")
	for _, name := range names {
		readings.AddRow(name, strconv.FormatFloat(stats.Readings[name], 'f', -1, 64))
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return readings.Render(w)
}

func formatCount(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}
