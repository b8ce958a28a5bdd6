// Package main implements a command line front to the storefront state
// managers, mainly useful for poking at a running backend.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/akulov/storefront/internal/app"
	"github.com/akulov/storefront/internal/catalog"
	"github.com/akulov/storefront/internal/config"
	"github.com/akulov/storefront/internal/order"
	"github.com/akulov/storefront/pkg/bootstrap"
	"github.com/akulov/storefront/pkg/config/configloader"
)

const appName = "storefront"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, cfgErr := configloader.Load[*config.Config](appName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	deps := app.SetupDependencies(cfg, logger)
	return dispatch(ctx, deps, args)
}

func dispatch(ctx context.Context, deps *app.Dependencies, args []string) error {
	if len(args) == 0 {
		return usage()
	}

	switch args[0] {
	case "cart":
		return cartCmd(ctx, deps, args[1:])
	case "wishlist":
		return wishlistCmd(ctx, deps, args[1:])
	case "orders":
		return ordersCmd(ctx, deps, args[1:])
	case "products":
		return productsCmd(ctx, deps, args[1:])
	case "login":
		return loginCmd(ctx, deps, args[1:])
	case "logout":
		deps.Auth.Logout(ctx)
		fmt.Println("signed out")
		return nil
	default:
		return usage()
	}
}

func usage() error {
	fmt.Fprintln(os.Stderr, `usage: storefront <command> [args]

  cart add <product-id> [qty] | remove <product-id> | list | totals | sync | coupon <code>
  wishlist toggle <product-id> | list
  orders list | stats | track <order-id>
  products list | search <query>
  login <email> <password>
  logout`)
	return fmt.Errorf("unknown command")
}

func cartCmd(ctx context.Context, deps *app.Dependencies, args []string) error {
	if len(args) == 0 {
		return usage()
	}
	switch args[0] {
	case "add":
		if len(args) < 2 {
			return usage()
		}
		quantity := 1
		if len(args) > 2 {
			parsed, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid quantity %q: %w", args[2], err)
			}
			quantity = parsed
		}
		product, err := deps.Catalog.Product(ctx, args[1])
		if err != nil {
			return err
		}
		current := deps.Cart.AddItem(ctx, *product, quantity, nil)
		fmt.Printf("cart now holds %d line item(s)\n", len(current.Items))
	case "remove":
		if len(args) < 2 {
			return usage()
		}
		current := deps.Cart.RemoveItem(ctx, args[1])
		fmt.Printf("cart now holds %d line item(s)\n", len(current.Items))
	case "list":
		for _, item := range deps.Cart.Cart().Items {
			fmt.Printf("%s  x%d  %s  %s\n", item.ProductID, item.Quantity, item.UnitPrice.StringFixed(2), item.Name)
		}
	case "totals":
		summary := deps.Cart.Totals()
		fmt.Printf("subtotal %s  discount %s  tax %s  shipping %s  total %s\n",
			summary.Totals.Subtotal.StringFixed(2),
			summary.Totals.Discount.StringFixed(2),
			summary.Totals.Tax.StringFixed(2),
			summary.Totals.Shipping.StringFixed(2),
			summary.Totals.Total.StringFixed(2))
	case "sync":
		current := deps.Cart.Sync(ctx)
		fmt.Printf("synced, cart now holds %d line item(s)\n", len(current.Items))
	case "coupon":
		if len(args) < 2 {
			return usage()
		}
		coupon, err := deps.Cart.ApplyCoupon(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("applied %s (%s %s)\n", coupon.Code, coupon.Kind, coupon.Value.String())
	default:
		return usage()
	}
	return nil
}

func wishlistCmd(ctx context.Context, deps *app.Dependencies, args []string) error {
	if len(args) == 0 {
		return usage()
	}
	switch args[0] {
	case "toggle":
		if len(args) < 2 {
			return usage()
		}
		if deps.Wishlist.Toggle(ctx, args[1]) {
			fmt.Printf("%s added to wishlist\n", args[1])
		} else {
			fmt.Printf("%s removed from wishlist\n", args[1])
		}
	case "list":
		for _, id := range deps.Wishlist.Items() {
			fmt.Println(id)
		}
	default:
		return usage()
	}
	return nil
}

func ordersCmd(ctx context.Context, deps *app.Dependencies, args []string) error {
	if len(args) == 0 {
		return usage()
	}
	switch args[0] {
	case "list":
		for _, record := range deps.Orders.List(ctx, order.ListFilters{}) {
			fmt.Printf("%s  %s  %s  %s\n", record.ID, record.CreatedAt.Format("2006-01-02"), record.Status, record.Totals.Total.StringFixed(2))
		}
	case "stats":
		stats := deps.Orders.Stats()
		fmt.Printf("orders: %d  spent: %s  average: %s\n", stats.TotalOrders, stats.TotalSpent.StringFixed(2), stats.AverageOrderValue.StringFixed(2))
		for month, spent := range stats.MonthlySpending {
			fmt.Printf("  %s: %s\n", month, spent.StringFixed(2))
		}
	case "track":
		if len(args) < 2 {
			return usage()
		}
		tracking, err := deps.Orders.Track(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s via %s: %s\n", tracking.OrderID, tracking.Carrier, tracking.Status)
	default:
		return usage()
	}
	return nil
}

func productsCmd(ctx context.Context, deps *app.Dependencies, args []string) error {
	if len(args) == 0 {
		return usage()
	}
	switch args[0] {
	case "list":
		products, err := deps.Catalog.Products(ctx, nil)
		if err != nil {
			return err
		}
		printProducts(products)
	case "search":
		if len(args) < 2 {
			return usage()
		}
		products, err := deps.Catalog.Search(ctx, args[1], nil)
		if err != nil {
			return err
		}
		printProducts(products)
	default:
		return usage()
	}
	return nil
}

func printProducts(products []catalog.Product) {
	for _, product := range products {
		fmt.Printf("%s  %s  %s\n", product.ID, product.Price.StringFixed(2), product.Name)
	}
}

func loginCmd(ctx context.Context, deps *app.Dependencies, args []string) error {
	if len(args) < 2 {
		return usage()
	}
	user, err := deps.Auth.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s %s <%s>\n", user.FirstName, user.LastName, user.Email)
	return nil
}
