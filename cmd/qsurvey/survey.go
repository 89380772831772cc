package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/qsurvey/internal/api"
	"github.com/verte-zerg/qsurvey/internal/download"
	"github.com/verte-zerg/qsurvey/internal/filter"
	"github.com/verte-zerg/qsurvey/internal/model"
	"github.com/verte-zerg/qsurvey/internal/render"
)

// filterFlags mirrors the dashboard filter form on the command line.
type filterFlags struct {
	outlet     string
	from       string
	to         string
	brand      string
	location   string
	state      string
	defectType string
	batch      string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.outlet, "outlet", "", "outlet name")
	cmd.Flags().StringVar(&f.from, "from", "", "from date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "to date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.brand, "brand", "", "brand")
	cmd.Flags().StringVar(&f.location, "location", "", "location")
	cmd.Flags().StringVar(&f.state, "state", "", "state")
	cmd.Flags().StringVar(&f.defectType, "defect-type", "", "defect type")
	cmd.Flags().StringVar(&f.batch, "batch", "", "batch number")
}

func (f *filterFlags) form() (filter.Form, error) {
	from, err := filter.ParseDate(f.from)
	if err != nil {
		return filter.Form{}, fmt.Errorf("invalid --from value: %w", err)
	}
	to, err := filter.ParseDate(f.to)
	if err != nil {
		return filter.Form{}, fmt.Errorf("invalid --to value: %w", err)
	}
	return filter.Form{
		OutletName:  f.outlet,
		FromDate:    from,
		ToDate:      to,
		Brand:       f.brand,
		Location:    f.location,
		State:       f.state,
		DefectType:  f.defectType,
		BatchNumber: f.batch,
	}, nil
}

var (
	queryFilters filterFlags
	queryJSON    bool

	exportFilters filterFlags
	exportOut     string

	imageFilters  filterFlags
	imageIDs      []string
	imageOut      string
	imageParallel int
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query survey records",
		Args:  cobra.NoArgs,
		RunE:  runQueryCmd,
	}
	queryFilters.register(cmd)
	cmd.Flags().BoolVar(&queryJSON, "json", false, "print records as JSON")
	return cmd
}

func runQueryCmd(cmd *cobra.Command, _ []string) error {
	form, err := queryFilters.form()
	if err != nil {
		return err
	}
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	if err := e.requireSession(ctx); err != nil {
		return err
	}
	records, err := e.client.SurveyData(ctx, filter.Normalize(form))
	if err != nil {
		return e.apiError(ctx, err)
	}
	rows := model.NewRows(records, time.Now())

	out := cmd.OutOrStdout()
	if queryJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	width := 0
	if f, ok := out.(*os.File); ok {
		width = render.TerminalWidth(f)
	}
	if err := render.Records(out, rows, width); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export records in a date range as a spreadsheet",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	exportFilters.register(cmd)
	cmd.Flags().StringVar(&exportOut, "out", "", "output directory (default: download dir)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	form, err := exportFilters.form()
	if err != nil {
		return err
	}
	from, to, err := form.Range()
	if err != nil {
		return err
	}
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	if err := e.requireSession(ctx); err != nil {
		return err
	}
	logErrln("Exporting...")
	dl, err := e.client.ExportExcel(ctx, from, to, form.Others())
	if err != nil {
		return e.apiError(ctx, err)
	}
	dir := exportOut
	if dir == "" {
		dir = e.cfg.DownloadDir
	}
	path, size, err := download.Save(dir, download.ExportFilename(from, to), dl.Body)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", path, render.Size(size))
	return err
}

func newImagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Download defect images of records",
		Args:  cobra.NoArgs,
		RunE:  runImagesCmd,
	}
	imageFilters.register(cmd)
	cmd.Flags().StringSliceVar(&imageIDs, "id", nil, "ResultID of a record (repeatable)")
	cmd.Flags().StringVar(&imageOut, "out", "", "output directory (default: download dir)")
	cmd.Flags().IntVar(&imageParallel, "parallel", defaultBatchLimit, "concurrent downloads")
	return cmd
}

func runImagesCmd(cmd *cobra.Command, _ []string) error {
	if len(imageIDs) == 0 {
		return fmt.Errorf("at least one --id is required")
	}
	if imageParallel <= 0 {
		return fmt.Errorf("--parallel must be > 0")
	}
	form, err := imageFilters.form()
	if err != nil {
		return err
	}
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	if err := e.requireSession(ctx); err != nil {
		return err
	}
	records, err := e.client.SurveyData(ctx, filter.Normalize(form))
	if err != nil {
		return e.apiError(ctx, err)
	}
	byID := make(map[string]model.SurveyRecord, len(records))
	for _, r := range records {
		byID[r.ResultID.String()] = r
	}
	dir := imageOut
	if dir == "" {
		dir = e.cfg.DownloadDir
	}

	results := download.Batch(ctx, imageIDs, imageParallel, func(ctx context.Context, id string) (string, int, error) {
		rec, ok := byID[id]
		if !ok {
			return "", 0, fmt.Errorf("record not found")
		}
		files := rec.Images()
		dl, err := e.client.DownloadImages(ctx, id, files)
		if err != nil {
			return "", 0, err
		}
		return download.Save(dir, download.ImageFilename(id, files), dl.Body)
	})

	out := cmd.OutOrStdout()
	failed := 0
	expired := false
	for _, r := range results {
		if r.Err != nil {
			failed++
			if errors.Is(r.Err, api.ErrSessionExpired) {
				expired = true
			}
			logErrf("%s: %v\n", r.ID, r.Err)
			continue
		}
		if _, err := fmt.Fprintf(out, "%s: saved %s (%s)\n", r.ID, r.Path, render.Size(r.Size)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if expired {
		return e.apiError(ctx, api.ErrSessionExpired)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(results))
	}
	return nil
}
