// position-stats summarises the generated single-axis move distances:
// mean, spread and quantiles for the advancing and retreating feet
// separately. Useful as a sanity check after regenerating a coil.
package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/coilwinder/internal/db"
)

var dbPath = flag.String("db", "coilwinder.db", "Path to the sqlite database")

func loadDistances(database *db.DB) (adv, ret []float64, err error) {
	rows, err := database.Query(
		`SELECT selected_dist, action_desc FROM scs_axis_positions
		 WHERE selected_axis IS NOT NULL ORDER BY ria_angle`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var dist float64
		var action string
		if err := rows.Scan(&dist, &action); err != nil {
			return nil, nil, err
		}
		switch {
		case strings.Contains(action, "Adv Ft To Trn"):
			adv = append(adv, dist)
		case strings.Contains(action, "Ret Ft To Trn"):
			ret = append(ret, dist)
		}
	}
	return adv, ret, rows.Err()
}

func printSummary(name string, dists []float64) {
	if len(dists) == 0 {
		fmt.Printf("%s: no rows\n", name)
		return
	}

	sorted := make([]float64, len(dists))
	copy(sorted, dists)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(dists, nil)
	fmt.Printf("%s (%d moves)\n", name, len(dists))
	fmt.Printf("  mean   %10.3f mm\n", mean)
	fmt.Printf("  stddev %10.3f mm\n", std)
	fmt.Printf("  min    %10.3f mm\n", sorted[0])
	fmt.Printf("  p25    %10.3f mm\n", stat.Quantile(0.25, stat.Empirical, sorted, nil))
	fmt.Printf("  p50    %10.3f mm\n", stat.Quantile(0.5, stat.Empirical, sorted, nil))
	fmt.Printf("  p75    %10.3f mm\n", stat.Quantile(0.75, stat.Empirical, sorted, nil))
	fmt.Printf("  max    %10.3f mm\n", sorted[len(sorted)-1])
}

func main() {
	flag.Parse()

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	adv, ret, err := loadDistances(database)
	if err != nil {
		log.Fatalf("Failed to load position rows: %v", err)
	}

	printSummary("Advancing foot", adv)
	fmt.Println()
	printSummary("Retreating foot", ret)
}
