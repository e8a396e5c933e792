package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/marketpadi/compare-service/internal/catalog"
	"github.com/marketpadi/compare-service/internal/database"
	"github.com/marketpadi/compare-service/internal/engine"
)

var (
	compareBasketFile string
	compareLat        float64
	compareLng        float64
	compareMode       string
	comparePerKm      float64
	compareTimeValue  float64
	comparePreferred  int64
	compareLoyalty    float64
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare [item:qty ...]",
	Short: "Compare a basket across stores",
	Long: `Price a shopping basket at every store with known coordinates and rank
the alternatives by net saving: price difference minus transport cost,
time cost, and any loyalty penalty.

Basket items are given either as item:qty arguments or via --basket
pointing at an .xlsx file with name, quantity, and optional category id
columns.`,
	Example: `  compare-service compare rice:2 "peak milk:1"
  compare-service compare --basket basket.xlsx --lat 6.45 --lng 3.40
  compare-service compare rice:1 --mode walking --preferred-store 3`,
	RunE: runCompare,
}

// nearbyCmd represents the nearby command
var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "List stores near a location",
	Example: `  compare-service nearby --lat 6.45 --lng 3.40 --radius 5`,
	RunE:    runNearby,
}

var (
	nearbyLat    float64
	nearbyLng    float64
	nearbyRadius float64
	nearbyLimit  int
)

// quickCheckCmd represents the quick-check command
var quickCheckCmd = &cobra.Command{
	Use:   "quick-check",
	Short: "Check if a single price difference is worth the trip",
	Long: `Answer "is it worth switching?" for one price pair and a distance,
without touching the catalog. Uses the default preference profile.`,
	Example: `  compare-service quick-check --current 1000 --candidate 800 --distance 5`,
	RunE:    runQuickCheck,
}

var (
	quickCurrent   float64
	quickCandidate float64
	quickDistance  float64
	quickMode      string
)

func init() {
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(nearbyCmd)
	rootCmd.AddCommand(quickCheckCmd)

	compareCmd.Flags().StringVar(&compareBasketFile, "basket", "", "Path to an .xlsx basket file (name, quantity[, categoryId] columns)")
	compareCmd.Flags().Float64Var(&compareLat, "lat", 0, "User latitude (defaults to the configured location)")
	compareCmd.Flags().Float64Var(&compareLng, "lng", 0, "User longitude")
	compareCmd.Flags().StringVar(&compareMode, "mode", "driving", "Transport mode: walking, driving, transit, bicycling")
	compareCmd.Flags().Float64Var(&comparePerKm, "per-km", 40, "Travel cost per kilometre")
	compareCmd.Flags().Float64Var(&compareTimeValue, "time-value", 10, "Value of time per minute")
	compareCmd.Flags().Int64Var(&comparePreferred, "preferred-store", 0, "Preferred store ID (baseline)")
	compareCmd.Flags().Float64Var(&compareLoyalty, "loyalty-penalty", 0, "Cost of leaving the preferred store")

	nearbyCmd.Flags().Float64Var(&nearbyLat, "lat", 0, "Latitude")
	nearbyCmd.Flags().Float64Var(&nearbyLng, "lng", 0, "Longitude")
	nearbyCmd.Flags().Float64Var(&nearbyRadius, "radius", 10, "Search radius in km")
	nearbyCmd.Flags().IntVar(&nearbyLimit, "limit", 20, "Maximum number of stores")
	nearbyCmd.MarkFlagRequired("lat")
	nearbyCmd.MarkFlagRequired("lng")

	quickCheckCmd.Flags().Float64Var(&quickCurrent, "current", 0, "Current price")
	quickCheckCmd.Flags().Float64Var(&quickCandidate, "candidate", 0, "Candidate price")
	quickCheckCmd.Flags().Float64Var(&quickDistance, "distance", 0, "Distance to candidate store in km")
	quickCheckCmd.Flags().StringVar(&quickMode, "mode", "driving", "Transport mode")
	quickCheckCmd.MarkFlagRequired("current")
	quickCheckCmd.MarkFlagRequired("candidate")
	quickCheckCmd.MarkFlagRequired("distance")
}

func runCompare(cmd *cobra.Command, args []string) error {
	items, err := loadBasket(args)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("basket is empty: give item:qty arguments or --basket")
	}

	prefs := engine.DefaultPreferences()
	prefs.TransportMode = engine.TransportMode(compareMode)
	prefs.PerKmCost = comparePerKm
	prefs.ValueOfTimePerMin = compareTimeValue
	prefs.LoyaltyPenalty = compareLoyalty
	if comparePreferred > 0 {
		prefs.PreferredStoreID = &comparePreferred
	}

	req := &engine.CompareRequest{Items: items, Preferences: &prefs}
	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
		req.Location = &engine.Location{Latitude: compareLat, Longitude: compareLng}
	}

	comparer := newComparer()
	result, err := comparer.Compare(context.Background(), req)
	if err != nil {
		return err
	}

	printComparison(result)
	return nil
}

func runNearby(cmd *cobra.Command, args []string) error {
	comparer := newComparer()
	nearby, err := comparer.Nearby(context.Background(), engine.Location{Latitude: nearbyLat, Longitude: nearbyLng}, nearbyRadius, nearbyLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTORE\tDISTANCE (KM)")
	for _, sd := range nearby {
		fmt.Fprintf(w, "%d\t%s\t%.2f\n", sd.Store.ID, sd.Store.Name, sd.DistanceKm)
	}
	return w.Flush()
}

func runQuickCheck(cmd *cobra.Command, args []string) error {
	if quickCurrent <= 0 || quickCandidate <= 0 {
		return fmt.Errorf("prices must be positive")
	}
	if quickDistance < 0 {
		return fmt.Errorf("distance must be non-negative")
	}

	engineCfg := engine.Defaults()
	if cfg != nil {
		engineCfg = &cfg.Engine
	}
	comparer := engine.NewComparer(nil, nil, nil, engineCfg)
	result := comparer.QuickCheck(quickCurrent, quickCandidate, quickDistance, engine.TransportMode(quickMode))

	fmt.Printf("Verdict:         %s\n", result.Verdict)
	fmt.Printf("Price saving:    %.2f\n", result.PriceSaving)
	fmt.Printf("Transport cost:  %.2f\n", result.TransportCost)
	fmt.Printf("Time cost:       %.2f (%.1f min)\n", result.TimeCost, result.TravelTimeMin)
	fmt.Printf("Net saving:      %.2f\n", result.NetSaving)
	if result.WorthSwitching {
		fmt.Println("Worth switching.")
	} else {
		fmt.Println("Not worth switching.")
	}
	return nil
}

// newComparer wires the engine against the connected database.
func newComparer() *engine.Comparer {
	engineCfg := engine.Defaults()
	if cfg != nil {
		engineCfg = &cfg.Engine
	}
	priceCatalog := catalog.NewPostgresCatalog(database.Pool())
	return engine.NewComparer(priceCatalog, priceCatalog, nil, engineCfg)
}

// loadBasket merges item:qty arguments with an optional xlsx basket file.
func loadBasket(args []string) ([]*engine.BasketItem, error) {
	items := make([]*engine.BasketItem, 0, len(args))

	for _, arg := range args {
		name, qtyStr, found := strings.Cut(arg, ":")
		qty := 1.0
		if found {
			parsed, err := strconv.ParseFloat(qtyStr, 64)
			if err != nil || parsed <= 0 {
				return nil, fmt.Errorf("invalid quantity in %q", arg)
			}
			qty = parsed
		}
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("empty item name in %q", arg)
		}
		items = append(items, &engine.BasketItem{Name: strings.TrimSpace(name), Quantity: qty})
	}

	if compareBasketFile == "" {
		return items, nil
	}

	fileItems, err := loadBasketXLSX(compareBasketFile)
	if err != nil {
		return nil, err
	}
	return append(items, fileItems...), nil
}

// loadBasketXLSX reads basket rows from the first sheet of an xlsx file.
// Column A is the item name, B the quantity (default 1), C an optional
// category id. A header row is skipped when B1 is not numeric.
func loadBasketXLSX(path string) ([]*engine.BasketItem, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open basket file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("basket file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read basket rows: %w", err)
	}

	items := make([]*engine.BasketItem, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		qty := 1.0
		if len(row) > 1 && strings.TrimSpace(row[1]) != "" {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
			if err != nil {
				if i == 0 {
					// Header row
					continue
				}
				return nil, fmt.Errorf("row %d: invalid quantity %q", i+1, row[1])
			}
			qty = parsed
		}

		item := &engine.BasketItem{Name: strings.TrimSpace(row[0]), Quantity: qty}
		if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
			categoryID, err := strconv.ParseInt(strings.TrimSpace(row[2]), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid category id %q", i+1, row[2])
			}
			item.CategoryID = &categoryID
		}
		items = append(items, item)
	}
	return items, nil
}

func printComparison(result *engine.CompareResult) {
	base := result.Baseline
	fmt.Printf("Baseline: %s (total %.2f, %d/%d items)\n\n",
		base.StoreName, base.TotalPrice, base.AvailableCount, base.TotalCount)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STORE\tTOTAL\tKM\tTRAVEL\tTIME\tNET SAVING\tVERDICT\tCONFIDENCE")
	for _, alt := range result.Alternatives {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%s\t%s\n",
			alt.StoreName, alt.TotalPrice, alt.DistanceKm, alt.TransportCost,
			alt.TimeCost, alt.NetSaving, alt.Verdict, alt.Confidence)
	}
	w.Flush()

	fmt.Println()
	for _, rec := range result.Recommendations {
		fmt.Println(rec)
	}
}
