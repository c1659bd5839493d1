package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"parkinglot/internal/service"
)

var (
	quoteCheckin  string
	quoteCheckout string
	quoteRate     int64
)

var quoteCmd = &cobra.Command{
	Use:     "quote",
	Short:   "Print the fee for a stay without touching the database",
	Example: "  parkinglot quote --checkin 2024-05-20T08:00:00Z --checkout 2024-05-20T10:30:00Z --rate 1500",
	RunE:    runQuote,
}

func init() {
	quoteCmd.Flags().StringVar(&quoteCheckin, "checkin", "", "check-in time (RFC 3339)")
	quoteCmd.Flags().StringVar(&quoteCheckout, "checkout", "", "check-out time (RFC 3339)")
	quoteCmd.Flags().Int64Var(&quoteRate, "rate", 0, "hourly price in cents")
	_ = quoteCmd.MarkFlagRequired("checkin")
	_ = quoteCmd.MarkFlagRequired("checkout")
	_ = quoteCmd.MarkFlagRequired("rate")
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	checkin, err := time.Parse(time.RFC3339, quoteCheckin)
	if err != nil {
		return fmt.Errorf("--checkin: %w", err)
	}
	checkout, err := time.Parse(time.RFC3339, quoteCheckout)
	if err != nil {
		return fmt.Errorf("--checkout: %w", err)
	}

	q, err := service.Quote(checkin, checkout, quoteRate)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d h x %d = %d cents\n", q.BilledHours, q.HourlyPriceCents, q.AmountCents)
	return nil
}
