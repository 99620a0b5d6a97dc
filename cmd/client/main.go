// Package main is the terminal client: it signs in, connects the
// session controller, and drives it from a small command loop.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/akozyrev/stocktake/internal/client"
	"github.com/akozyrev/stocktake/internal/models"
)

var (
	version   string
	buildDate string
)

// repl runs the interactive loop, rendering the view after each
// command.
func repl(ctrl *client.Controller) {
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	var sessionID string

	for {
		render(ctrl)
		fmt.Print("stocktake> ")
		if !scanner.Scan() {
			break
		}
		args := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, start, end, scan <barcode> <qty>, find <query>, items, dark, report <format>, quit")
		case "start":
			id, err := ctrl.StartAudit(ctx)
			if err != nil {
				continue
			}
			sessionID = id
			fmt.Println("Session:", id)
		case "end":
			if sessionID == "" {
				fmt.Println("No session started from this terminal")
				continue
			}
			if err := ctrl.EndAudit(ctx, sessionID, ""); err == nil {
				sessionID = ""
			}
		case "scan":
			if len(args) < 3 {
				fmt.Println("Usage: scan <barcode> <qty>")
				continue
			}
			qty, err := strconv.Atoi(args[2])
			if err != nil {
				fmt.Println("Quantity must be a number")
				continue
			}
			outcome, err := ctrl.ScanItem(ctx, sessionID, args[1], qty)
			if err != nil {
				continue
			}
			fmt.Printf("%s: actual %d, expected %d, discrepancy %+d\n",
				outcome.Name, outcome.ActualQuantity, outcome.ExpectedQuantity, outcome.Discrepancy)
		case "find":
			if len(args) < 2 {
				fmt.Println("Usage: find <query>")
				continue
			}
			item, err := ctrl.LookupProduct(ctx, args[1])
			if err != nil {
				continue
			}
			fmt.Printf("%s (sku %s) at %s: expected %d, actual %d\n",
				item.Name, item.SKU, item.Location, item.ExpectedQuantity, item.ActualQuantity)
		case "items":
			if err := ctrl.LoadInventory(ctx); err != nil {
				fmt.Println("Error:", err)
			}
		case "dark":
			_ = ctrl.ToggleDarkMode(ctx)
		case "report":
			if sessionID == "" {
				fmt.Println("No session started from this terminal")
				continue
			}
			format := "pdf"
			if len(args) > 1 {
				format = args[1]
			}
			saveReport(ctx, ctrl, sessionID, format)
		case "quit", "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func saveReport(ctx context.Context, ctrl *client.Controller, sessionID, format string) {
	tmp, err := os.CreateTemp("", "audit_report_*."+format)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer tmp.Close()

	if _, err := ctrl.DownloadReport(ctx, sessionID, format, tmp); err != nil {
		os.Remove(tmp.Name())
		return
	}
	fmt.Println("Report saved to", tmp.Name())
}

// render prints the banner, notifications, and any highlighted rows.
func render(ctrl *client.Controller) {
	if banner := ctrl.View.Banner(); banner.Visible {
		fmt.Printf("[AUDIT] %s since %s | scanned %d | discrepancies %d\n",
			banner.User, banner.StartTime, banner.ItemsScanned, banner.DiscrepanciesFound)
	}
	for _, note := range ctrl.Notifier.Active() {
		fmt.Printf("(%s) %s\n", note.Level, note.Message)
	}
	for _, row := range ctrl.View.Rows() {
		if row.Highlighted {
			fmt.Printf("  %s [%s]: actual %d, discrepancy %s\n",
				row.Name, row.SKU, row.ActualQuantity, row.Discrepancy)
		}
	}
}

func main() {
	var (
		baseURL  string
		username string
		password string
		room     string
		showVer  bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&username, "user", "", "username")
	flag.StringVar(&password, "password", "", "password")
	flag.StringVar(&room, "room", "all_users", "broadcast room")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Stocktake Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	if username == "" || password == "" {
		log.Fatal("please provide -user and -password")
	}

	ctx := context.Background()

	api := client.NewAPI(baseURL)
	user, err := api.Login(ctx, username, password)
	if err != nil {
		log.Fatal(err)
	}
	if user == nil {
		user = &models.User{Username: username}
	}
	fmt.Printf("Signed in as %s (%s)\n", user.Username, user.Role)

	transport := client.NewWSTransport(baseURL, api.Token())
	ctrl := client.NewController(api, transport, user, room, zap.NewNop())
	if err := ctrl.Init(ctx); err != nil {
		log.Fatal(err)
	}
	defer ctrl.Close()

	if err := ctrl.LoadInventory(ctx); err != nil {
		log.Println("inventory load:", err)
	}

	repl(ctrl)
}
