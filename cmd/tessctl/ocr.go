package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wudi/tesskit/config"
	"github.com/wudi/tesskit/imageio"
	"github.com/wudi/tesskit/observability"
	"github.com/wudi/tesskit/ocr"
	"github.com/wudi/tesskit/ocr/gosseract"
	"github.com/wudi/tesskit/ocr/tesseract"
	"github.com/wudi/tesskit/tess"
)

var outputFormats = []string{"text", "hocr", "alto", "tsv", "box", "lstmbox", "wordstrbox", "unlv", "words"}

type ocrFlags struct {
	format    string
	language  string
	psm       string
	dpi       int
	engine    string
	whitelist string
}

func newOCRCmd(a *app) *cobra.Command {
	var f ocrFlags
	cmd := &cobra.Command{
		Use:   "ocr <image>...",
		Short: "Recognize text in images",
		Long: `Recognize text in one or more images (PNG, JPEG, GIF, TIFF, BMP, WebP).

Output formats: ` + strings.Join(outputFormats, ", ") + `.
The gosseract engine only supports the text and words formats.

Several images in text or words format are recognized in parallel by a
pool of pool.size native instances.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.apply(a.cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			headers := len(args) > 1 && interactive(out)
			if cfg.Engine == config.EngineGosseract {
				return a.runGosseract(cmd.Context(), cfg, f, args, out, headers)
			}
			if len(args) > 1 && pooledFormat(f.format) {
				return a.runPooled(cmd.Context(), cfg, f, args, out, headers)
			}

			api, err := a.openAPI(cfg)
			if err != nil {
				return err
			}
			defer api.Close()
			for i, path := range args {
				if headers {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "==> %s <==\n", path)
				}
				if err := recognizeFile(api, path, f, out); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				a.logger.Debug("image recognized", observability.String("file", path), observability.String("format", f.format))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "output format: "+strings.Join(outputFormats, ", "))
	cmd.Flags().StringVarP(&f.language, "lang", "l", "", "languages, e.g. eng+deu (overrides config)")
	cmd.Flags().StringVar(&f.psm, "psm", "", "page segmentation mode, number or name (overrides config)")
	cmd.Flags().IntVar(&f.dpi, "dpi", 0, "source resolution in pixels per inch")
	cmd.Flags().StringVar(&f.engine, "engine", "", "engine backend: native or gosseract (overrides config)")
	cmd.Flags().StringVar(&f.whitelist, "whitelist", "", "restrict recognition to these characters")
	return cmd
}

// apply returns a copy of cfg with the flag overrides.
func (f ocrFlags) apply(base *config.Config) (*config.Config, error) {
	cfg := *base
	cfg.Variables = make(map[string]string, len(base.Variables)+1)
	for k, v := range base.Variables {
		cfg.Variables[k] = v
	}
	if f.language != "" {
		cfg.Language = f.language
	}
	if f.psm != "" {
		m, err := tess.ParsePageSegMode(f.psm)
		if err != nil {
			return nil, err
		}
		cfg.PageSegMode = int(m)
	}
	if f.engine != "" {
		cfg.Engine = f.engine
	}
	if f.whitelist != "" {
		cfg.Variables["tessedit_char_whitelist"] = f.whitelist
	}
	if !validFormat(f.format) {
		return nil, fmt.Errorf("unknown output format %q", f.format)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, config.ValidationErrors(errs)
	}
	return &cfg, nil
}

func validFormat(format string) bool {
	for _, f := range outputFormats {
		if f == format {
			return true
		}
	}
	return false
}

func recognizeFile(api *tess.API, path string, f ocrFlags, out io.Writer) error {
	raw, _, err := imageio.DecodeFile(path)
	if err != nil {
		return err
	}
	if err := api.SetImage(raw.Pix, raw.Width, raw.Height, raw.BytesPerPixel, raw.BytesPerLine); err != nil {
		return err
	}
	if f.dpi > 0 {
		if err := api.SetSourceResolution(f.dpi); err != nil {
			return err
		}
	}
	if err := api.SetInputName(filepath.Base(path)); err != nil {
		return err
	}
	if f.format == "words" {
		return writeWords(api, out)
	}
	if err := api.Recognize(); err != nil {
		return err
	}
	var text string
	switch f.format {
	case "text":
		text, err = api.UTF8Text()
	case "hocr":
		text, err = api.HOCRText(0)
	case "alto":
		text, err = api.AltoText(0)
	case "tsv":
		text, err = api.TsvText(0)
	case "box":
		text, err = api.BoxText(0)
	case "lstmbox":
		text, err = api.LSTMBoxText(0)
	case "wordstrbox":
		text, err = api.WordStrBoxText(0)
	case "unlv":
		text, err = api.UNLVText()
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, text)
	return err
}

// writeWords prints one recognized word per line with its confidence and
// bounding box.
func writeWords(api *tess.API, out io.Writer) error {
	page, result, err := api.Iterators()
	if err != nil {
		return err
	}
	defer page.Close()
	defer result.Close()

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tCONF\tLEFT\tTOP\tRIGHT\tBOTTOM")
	for {
		word, err := result.Text(tess.LevelWord)
		if errors.Is(err, tess.ErrNullPointer) {
			break
		}
		if err != nil {
			return err
		}
		conf, err := result.Confidence(tess.LevelWord)
		if err != nil {
			return err
		}
		box, err := result.BoundingBox(tess.LevelWord)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%.1f\t%d\t%d\t%d\t%d\n", word, conf, box.Left, box.Top, box.Right, box.Bottom)
		more, err := result.Next(tess.LevelWord)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return tw.Flush()
}

func pooledFormat(format string) bool { return format == "text" || format == "words" }

// runPooled recognizes paths concurrently on the native engine, one pool
// instance per image at a time.
func (a *app) runPooled(ctx context.Context, cfg *config.Config, f ocrFlags, paths []string, out io.Writer, headers bool) error {
	engine := tesseract.NewTesseractEngine(
		tesseract.WithLibrary(a.lib),
		tesseract.WithDataPath(cfg.TessData),
		tesseract.WithLanguages(strings.Split(cfg.Language, "+")...),
		tesseract.WithEngineMode(tess.EngineMode(cfg.EngineMode)),
		tesseract.WithConfigs(cfg.Configs...),
		tesseract.WithInitVariables(cfg.InitVariables),
		tesseract.WithVariables(cfg.Variables),
		tesseract.WithPoolSize(cfg.Pool.Size),
		tesseract.WithAcquireTimeout(cfg.Pool.AcquireTimeout),
		tesseract.WithLogger(a.logger),
	)
	defer engine.Close()
	results, err := recognizeInputs(ctx, engine, cfg, f, paths)
	if err != nil {
		return err
	}
	a.logger.Debug("images recognized", observability.Int("count", len(results)), observability.Int("pool_size", cfg.Pool.Size))
	return writeResults(out, f.format, paths, results, headers)
}

func (a *app) runGosseract(ctx context.Context, cfg *config.Config, f ocrFlags, paths []string, out io.Writer, headers bool) error {
	if !pooledFormat(f.format) {
		return fmt.Errorf("format %q is not supported by the gosseract engine", f.format)
	}
	engine := gosseract.New(
		gosseract.WithDataPath(cfg.TessData),
		gosseract.WithLanguages(strings.Split(cfg.Language, "+")...),
		gosseract.WithVariables(cfg.Variables),
	)
	results, err := recognizeInputs(ctx, engine, cfg, f, paths)
	if err != nil {
		return err
	}
	return writeResults(out, f.format, paths, results, headers)
}

func recognizeInputs(ctx context.Context, engine ocr.Engine, cfg *config.Config, f ocrFlags, paths []string) ([]ocr.Result, error) {
	inputs := make([]ocr.Input, 0, len(paths))
	for _, path := range paths {
		in, err := ocr.InputFromFile(path, ocr.WithDPI(f.dpi), ocr.WithTesseractPSM(cfg.PageSegMode))
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return ocr.RecognizeAll(ctx, engine, inputs)
}

func writeResults(out io.Writer, format string, paths []string, results []ocr.Result, headers bool) error {
	for i, res := range results {
		if headers {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "==> %s <==\n", paths[i])
		}
		if format == "text" {
			fmt.Fprintln(out, res.PlainText)
			continue
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WORD\tCONF\tLEFT\tTOP\tRIGHT\tBOTTOM")
		for _, b := range res.Blocks {
			for _, l := range b.Lines {
				for _, w := range l.Words {
					fmt.Fprintf(tw, "%s\t%.1f\t%.0f\t%.0f\t%.0f\t%.0f\n", w.Text, w.Confidence*100,
						w.Bounds.X, w.Bounds.Y, w.Bounds.X+w.Bounds.Width, w.Bounds.Y+w.Bounds.Height)
				}
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
