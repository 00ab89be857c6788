package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/xyproto/unzip"

	"github.com/rustyeddy/backtester/internal/cli/config"
	"github.com/rustyeddy/backtester/market"
)

const defaultBase = "https://data.binance.vision"

type job struct {
	month time.Time
	url   string
	dst   string // downloaded .zip path
}

func newBinanceCmd(rc *config.RootConfig) *cobra.Command {
	var (
		base     string
		symbol   string
		interval string
		startStr string
		endStr   string
		outPath  string
		cacheDir string
		workers  int
		timeout  time.Duration
		sleep    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "binance",
		Short: "Download Binance monthly kline archives and merge them into one CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			sym := strings.ToUpper(strings.TrimSpace(symbol))
			if sym == "" {
				return fmt.Errorf("--symbol is required")
			}

			start, err := time.Parse("2006-01", startStr)
			if err != nil {
				return fmt.Errorf("bad --start (want YYYY-MM): %w", err)
			}
			end, err := time.Parse("2006-01", endStr)
			if err != nil {
				return fmt.Errorf("bad --end (want YYYY-MM): %w", err)
			}
			if end.Before(start) {
				return fmt.Errorf("--end must not be before --start")
			}

			if cacheDir == "" {
				cacheDir = filepath.Join(os.TempDir(), "binance-klines")
			}
			if err := os.MkdirAll(cacheDir, 0o755); err != nil {
				return err
			}

			var jobs []job
			for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
				name := fmt.Sprintf("%s-%s-%s.zip", sym, interval, m.Format("2006-01"))
				jobs = append(jobs, job{
					month: m,
					url:   fmt.Sprintf("%s/data/spot/monthly/klines/%s/%s/%s", base, sym, interval, name),
					dst:   filepath.Join(cacheDir, name),
				})
			}

			if err := download(jobs, workers, timeout, sleep); err != nil {
				return err
			}
			return merge(jobs, cacheDir, outPath)
		},
	}

	cmd.Flags().StringVar(&base, "base", defaultBase, "Binance data archive base URL")
	cmd.Flags().StringVar(&symbol, "symbol", "BTCUSDT", "Symbol like BTCUSDT")
	cmd.Flags().StringVar(&interval, "interval", "1m", "Kline interval: 1m, 5m, 1h, 1d, ...")
	cmd.Flags().StringVar(&startStr, "start", "", "First month (YYYY-MM)")
	cmd.Flags().StringVar(&endStr, "end", "", "Last month inclusive (YYYY-MM)")
	cmd.Flags().StringVar(&outPath, "out", "klines.csv", "Merged output CSV")
	cmd.Flags().StringVar(&cacheDir, "cache", "", "Archive cache directory (default under the system temp dir)")
	cmd.Flags().IntVar(&workers, "workers", 4, "Parallel downloads")
	cmd.Flags().DurationVar(&timeout, "timeout", 45*time.Second, "HTTP timeout")
	cmd.Flags().DurationVar(&sleep, "sleep", 50*time.Millisecond, "Polite delay per request")

	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func download(jobs []job, workers int, timeout, sleep time.Duration) error {
	if workers < 1 {
		workers = 1
	}
	client := &http.Client{Timeout: timeout}

	work := make(chan job)
	errCh := make(chan error, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for jb := range work {
				if err := fetch(client, jb); err != nil {
					errCh <- fmt.Errorf("%s: %w", jb.url, err)
				}
				time.Sleep(sleep)
			}
		}()
	}

	for _, jb := range jobs {
		work <- jb
	}
	close(work)
	wg.Wait()
	close(errCh)

	return <-errCh
}

func fetch(client *http.Client, jb job) error {
	if _, err := os.Stat(jb.dst); err == nil {
		log.Debug().Str("file", jb.dst).Msg("archive cached, skipping")
		return nil
	}

	resp, err := client.Get(jb.url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	tmp := jb.dst + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, jb.dst); err != nil {
		return err
	}

	log.Info().Str("month", jb.month.Format("2006-01")).Msg("downloaded")
	return nil
}

// merge extracts each monthly archive and concatenates the rows, in
// month order, into one CSV with the standard kline header. Binance
// archive rows carry no header and twelve columns; only the first
// seven (through close time) are kept.
func merge(jobs []job, cacheDir, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(market.KlineHeader); err != nil {
		return err
	}

	rows := 0
	for _, jb := range jobs {
		extractDir := filepath.Join(cacheDir, "x", jb.month.Format("2006-01"))
		if err := os.MkdirAll(extractDir, 0o755); err != nil {
			return err
		}
		if err := unzip.Extract(jb.dst, extractDir); err != nil {
			return fmt.Errorf("extract %s: %w", jb.dst, err)
		}

		csvPath := filepath.Join(extractDir, strings.TrimSuffix(filepath.Base(jb.dst), ".zip")+".csv")
		n, err := appendRows(w, csvPath)
		if err != nil {
			return err
		}
		rows += n
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	log.Info().Int("rows", rows).Str("out", outPath).Msg("merged klines")
	return nil
}

func appendRows(w *csv.Writer, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	n := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, fmt.Errorf("read %s: %w", path, err)
		}
		if len(rec) < len(market.KlineHeader) {
			continue
		}
		if err := w.Write(rec[:len(market.KlineHeader)]); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
