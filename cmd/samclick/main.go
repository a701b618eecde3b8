// Package main samclick: 在图片上按点击列表执行 SAM 分割并保存覆盖层
package main

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"

	"github.com/getcharzp/go-segment"
	"github.com/getcharzp/go-segment/internal/logging"
	"github.com/getcharzp/go-segment/sam"
	"github.com/up-zero/gotool/imageutil"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const (
	flagConfig    = "config"
	flagImage     = "image"
	flagEmbedding = "embedding"
	flagDecoder   = "decoder"
	flagLib       = "lib"
	flagClick     = "click"
	flagOverlay   = "overlay"
	flagComposite = "composite"
)

func main() {
	var (
		cfg    *Config
		logger = zap.NewNop()
	)

	app := &cli.App{
		Name:  "samclick",
		Usage: "point-prompted segmentation with a SAM decoder",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			cfg, err = LoadConfig(c.String(flagConfig))
			if err != nil {
				return err
			}
			logger, err = logging.New(cfg.Log.Mode)
			return err
		},
		After: func(c *cli.Context) error {
			logging.Sync(logger)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "segment",
				Usage: "apply clicks to an image and save the mask overlay",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagImage, Usage: "input image `FILE`", Required: true},
					&cli.StringFlag{Name: flagEmbedding, Usage: "image embedding `FILE` (.npy)", Required: true},
					&cli.StringFlag{Name: flagDecoder, Usage: "decoder onnx `FILE`"},
					&cli.StringFlag{Name: flagLib, Usage: "onnxruntime shared library `FILE`"},
					&cli.StringSliceFlag{Name: flagClick, Usage: "click as x,y[,fg|bg] or reset, repeatable"},
					&cli.StringFlag{Name: flagOverlay, Usage: "overlay output `FILE`"},
					&cli.StringFlag{Name: flagComposite, Usage: "composite output `FILE`"},
				},
				Action: func(c *cli.Context) error {
					if c.IsSet(flagDecoder) {
						cfg.Model.DecodeModelPath = c.String(flagDecoder)
					}
					if c.IsSet(flagLib) {
						cfg.Model.OnnxRuntimeLibPath = c.String(flagLib)
					}
					if c.IsSet(flagOverlay) {
						cfg.Output.Overlay = c.String(flagOverlay)
					}
					if c.IsSet(flagComposite) {
						cfg.Output.Composite = c.String(flagComposite)
					}
					actions, err := parseClicks(c.StringSlice(flagClick))
					if err != nil {
						return err
					}
					return segmentAction(cfg, c.String(flagImage), c.String(flagEmbedding), actions, logger)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func segmentAction(cfg *Config, imagePath, embeddingPath string, actions []clickAction, logger *zap.Logger) error {
	img, err := imageutil.Open(imagePath)
	if err != nil {
		return fmt.Errorf("打开图片失败: %w", err)
	}
	emb, err := sam.LoadEmbedding(embeddingPath)
	if err != nil {
		return err
	}

	engineConfig := cfg.EngineConfig()
	engine, err := sam.NewEngine(engineConfig)
	if err != nil {
		return fmt.Errorf("初始化引擎失败: %w", err)
	}
	defer engine.Destroy()

	session := sam.NewSession(engine, sam.WithLogger(logger), sam.WithMaskColor(engineConfig.MaskColor))
	bounds := img.Bounds()
	if err := session.LoadImage(bounds.Dx(), bounds.Dy(), emb); err != nil {
		return err
	}

	result, clickErr := applyClicks(session, actions, logger)
	if result == nil && clickErr != nil {
		return clickErr
	}
	// 部分点击失败时仍保存最后一次成功的结果, 再返回错误
	if err := writeOutputs(cfg.Output, img, session.Clicks(), result, logger); err != nil {
		return errors.Join(clickErr, err)
	}
	return clickErr
}

// applyClicks 依次执行点击, 单次失败不影响后续点击
//
// 返回最后一次成功的结果与所有失败点击合并后的错误
func applyClicks(session *sam.Session, actions []clickAction, logger *zap.Logger) (*sam.SegmentationResult, error) {
	var failed error
	for _, a := range actions {
		if a.Reset {
			session.Reset()
			continue
		}
		if _, err := session.Click(a.Point.X, a.Point.Y, a.Point.Label); err != nil {
			logger.Warn("click failed",
				zap.Int("x", a.Point.X),
				zap.Int("y", a.Point.Y),
				zap.Error(err))
			failed = errors.Join(failed, err)
		}
	}
	return session.Result(), failed
}

func writeOutputs(out OutputConfig, img image.Image, clicks []sam.ClickPoint, result *sam.SegmentationResult, logger *zap.Logger) error {
	var overlay image.Image
	if result != nil {
		overlay = result.Overlay.Image()
	} else {
		// 没有点击时输出全透明覆盖层
		bounds := img.Bounds()
		overlay = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	}

	if out.Overlay != "" {
		if err := imageutil.Save(out.Overlay, overlay, out.Quality); err != nil {
			return fmt.Errorf("保存覆盖层失败: %w", err)
		}
		logger.Info("overlay saved", zap.String("path", out.Overlay))
	}

	if out.Composite != "" {
		dst := segment.Composite(img, overlay)
		markers := make([]segment.Marker, len(clicks))
		for i, c := range clicks {
			markers[i] = segment.Marker{X: c.X, Y: c.Y, Foreground: c.Label == sam.LabelForeground}
		}
		segment.DrawClicks(dst, markers, out.MarkerRadius)
		if err := imageutil.Save(out.Composite, dst, out.Quality); err != nil {
			return fmt.Errorf("保存叠加图失败: %w", err)
		}
		logger.Info("composite saved", zap.String("path", out.Composite))
	}
	return nil
}
