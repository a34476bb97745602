// position-chart renders the generated single-axis move distances
// against RIA angle, advancing and retreating feet as separate series.
// Output is a standalone HTML scatter, with an optional PNG line plot
// for reports.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/coilwinder/internal/db"
)

var (
	dbPath   = flag.String("db", "coilwinder.db", "Path to the sqlite database")
	htmlPath = flag.String("out", "positions.html", "Output HTML file")
	pngPath  = flag.String("png", "", "Also render a PNG line plot to this path (optional)")
)

type move struct {
	RIA  float64
	Dist float64
}

func loadMoves(database *db.DB) (adv, ret []move, err error) {
	rows, err := database.Query(
		`SELECT ria_angle, selected_dist, action_desc FROM scs_axis_positions
		 WHERE selected_axis IS NOT NULL ORDER BY ria_angle`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var m move
		var action string
		if err := rows.Scan(&m.RIA, &m.Dist, &action); err != nil {
			return nil, nil, err
		}
		switch {
		case strings.Contains(action, "Adv Ft To Trn"):
			adv = append(adv, m)
		case strings.Contains(action, "Ret Ft To Trn"):
			ret = append(ret, m)
		}
	}
	return adv, ret, rows.Err()
}

func scatterData(moves []move) []opts.ScatterData {
	data := make([]opts.ScatterData, 0, len(moves))
	for _, m := range moves {
		data = append(data, opts.ScatterData{Value: []interface{}{m.RIA, m.Dist}})
	}
	return data
}

func renderHTML(adv, ret []move, path string) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Foot Moves", Theme: "dark", Width: "1400px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Foot Move Distances", Subtitle: fmt.Sprintf("adv=%d ret=%d", len(adv), len(ret))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "RIA angle (deg)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Distance (mm)", NameLocation: "middle", NameGap: 40}),
	)

	scatter.AddSeries("advancing", scatterData(adv), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	scatter.AddSeries("retreating", scatterData(ret), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return scatter.Render(f)
}

func plotPoints(moves []move) plotter.XYs {
	pts := make(plotter.XYs, 0, len(moves))
	for _, m := range moves {
		pts = append(pts, plotter.XY{X: m.RIA, Y: m.Dist})
	}
	return pts
}

func renderPNG(adv, ret []move, path string) error {
	p := plot.New()
	p.Title.Text = "Foot Move Distances"
	p.X.Label.Text = "RIA angle (deg)"
	p.Y.Label.Text = "Distance (mm)"

	advLine, err := plotter.NewLine(plotPoints(adv))
	if err != nil {
		return err
	}
	advLine.Width = vg.Points(1)
	p.Add(advLine)
	p.Legend.Add("advancing", advLine)

	retLine, err := plotter.NewLine(plotPoints(ret))
	if err != nil {
		return err
	}
	retLine.Width = vg.Points(1)
	retLine.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
	p.Add(retLine)
	p.Legend.Add("retreating", retLine)

	p.Legend.Top = true
	return p.Save(14*vg.Inch, 6*vg.Inch, path)
}

func main() {
	flag.Parse()

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	adv, ret, err := loadMoves(database)
	if err != nil {
		log.Fatalf("Failed to load position rows: %v", err)
	}
	if len(adv) == 0 && len(ret) == 0 {
		log.Fatal("No single-axis rows found; generate positions first")
	}

	if err := renderHTML(adv, ret, *htmlPath); err != nil {
		log.Fatalf("Failed to render chart: %v", err)
	}
	log.Printf("Wrote %s", *htmlPath)

	if *pngPath != "" {
		if err := renderPNG(adv, ret, *pngPath); err != nil {
			log.Fatalf("Failed to render PNG: %v", err)
		}
		log.Printf("Wrote %s", *pngPath)
	}
}
