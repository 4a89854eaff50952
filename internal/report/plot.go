package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"finmetrics/internal/metrics"
)

var (
	strategyColor = color.RGBA{R: 220, G: 40, B: 40, A: 255}
	baselineColor = color.RGBA{R: 40, G: 70, B: 220, A: 255}
	dashes        = []vg.Length{vg.Points(6), vg.Points(4)}
)

// PlotPDF 绘制策略夏普比率的正态密度曲线，并与基准对比，保存为 path.png 并返回文件路径。
// baselineRange 为 true 时 baseline 视为一组夏普比率，否则取 baseline[0] 作为单个基准值。
func PlotPDF(path string, strategy, baseline []float64, baselineRange bool) (string, error) {
	if len(strategy) == 0 {
		return "", fmt.Errorf("report: 策略夏普比率为空: %w", ErrNoData)
	}
	if len(baseline) == 0 {
		return "", fmt.Errorf("report: 基准夏普比率为空: %w", ErrNoData)
	}

	p := plot.New()
	p.X.Label.Text = "Sharpe ratio"
	p.Y.Label.Text = "Density"
	p.Legend.Top = true
	p.Legend.Left = true

	ys, err := addDensity(p, strategy, strategyColor, draw.CircleGlyph{})
	if err != nil {
		return "", err
	}
	yMax := ys

	baselineMean := baseline[0]
	label := "Baseline Sharpe ratio"
	if baselineRange {
		if ys, err = addDensity(p, baseline, baselineColor, draw.CrossGlyph{}); err != nil {
			return "", err
		}
		yMax = math.Max(yMax, ys)
		baselineMean = stat.Mean(baseline, nil)
		label = "Baseline avg. Sharpe ratio"
	}
	if yMax <= 0 {
		yMax = 1
	}

	if err := addVertical(p, "Strategy avg. Sharpe ratio", stat.Mean(strategy, nil), yMax, strategyColor); err != nil {
		return "", err
	}
	if err := addVertical(p, label, baselineMean, yMax, baselineColor); err != nil {
		return "", err
	}

	out := path + ".png"
	if dir := filepath.Dir(out); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("report: 创建目录 %q 失败: %w", dir, err)
		}
	}
	if err := p.Save(6*vg.Inch, 6*vg.Inch, out); err != nil {
		return "", fmt.Errorf("report: 保存图像失败: %w", err)
	}
	return out, nil
}

// addDensity 绘制排序后的取值与其密度（虚线加散点），返回最大密度。
// 所有取值相同时密度无定义，只画均值线。
func addDensity(p *plot.Plot, values []float64, c color.Color, shape draw.GlyphDrawer) (float64, error) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	density := metrics.ProbabilityDensity(sorted)
	if floats.HasNaN(density) {
		return 0, nil
	}

	pts := make(plotter.XYs, len(sorted))
	for i := range sorted {
		pts[i].X = sorted[i]
		pts[i].Y = density[i]
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return 0, fmt.Errorf("report: 构造密度曲线失败: %w", err)
	}
	line.Color = c
	line.Dashes = dashes

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return 0, fmt.Errorf("report: 构造散点失败: %w", err)
	}
	scatter.GlyphStyle.Color = c
	scatter.GlyphStyle.Shape = shape
	scatter.GlyphStyle.Radius = vg.Points(2.5)

	p.Add(line, scatter)
	return floats.Max(density), nil
}

func addVertical(p *plot.Plot, label string, x, height float64, c color.Color) error {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	line, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: height}})
	if err != nil {
		return fmt.Errorf("report: 构造均值线失败: %w", err)
	}
	line.Color = c
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}
