package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/locness-lab/gpslogger/internal/store"
)

func main() {
	var (
		dbFile = pflag.StringP("db-file", "d", "gps_data.db", "SQLite database file")
		table  = pflag.StringP("table", "t", "gps_data", "table name")
		limit  = pflag.IntP("limit", "l", 10, "number of records to display")
	)
	pflag.Parse()

	r, err := store.OpenReader(*dbFile, *table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer r.Close()

	rows, err := r.Latest(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Println("No GPS data found in database.")
		return
	}

	fmt.Printf("Latest %d GPS records:\n", len(rows))
	fmt.Println(divider)
	fmt.Printf("%-20s %-12s %-12s %-12s %-20s\n", "PC Time", "NMEA Time", "Latitude", "Longitude", "Created")
	fmt.Println(divider)
	for _, row := range rows {
		pcTime := time.Unix(row.DatetimeUTC, 0).Format("2006-01-02 15:04:05")
		fmt.Printf("%-20s %-12s %-12.6f %-12.6f %-20s\n",
			pcTime, row.NMEATime, row.Latitude, row.Longitude, row.CreatedAt)
	}
}

const divider = "--------------------------------------------------------------------------------"
