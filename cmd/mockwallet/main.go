// Command mockwallet drives one full purchase against a running storefront
// with the mock wallet: login, profile, transaction, approve, complete.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"b4u/walletbridge"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		baseURL   = flag.String("server", "http://127.0.0.1:3000", "storefront base URL")
		username  = flag.String("username", "mock_pioneer", "mock Pioneer username")
		packageID = flag.Uint("package", 1, "package id to buy")
		game      = flag.String("game", "PUBG_MOBILE", "game of the package (PUBG_MOBILE or MLBB)")
		account   = flag.String("account", "5123456789", "game account id")
		zone      = flag.String("zone", "", "MLBB zone id")
		approval  = flag.Duration("approval-delay", walletbridge.DefaultApprovalDelay, "delay before approval is requested")
		complete  = flag.Duration("completion-delay", walletbridge.DefaultCompletionDelay, "delay before completion is requested")
		cancel    = flag.Bool("cancel", false, "cancel after approval instead of completing")
		timeout   = flag.Duration("timeout", 30*time.Second, "overall timeout")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	wallet := walletbridge.NewMockWallet()
	wallet.Username = *username
	wallet.ApprovalDelay = *approval
	wallet.CompletionDelay = *complete
	wallet.CancelAfterApproval = *cancel

	server := walletbridge.NewServer(*baseURL)

	auth, err := wallet.Authenticate(ctx, []string{"username", "payments"}, walletbridge.ResolveIncomplete(ctx, server))
	if err != nil {
		log.Fatal().Err(err).Msg("authenticate failed")
	}
	if err := server.Login(ctx, auth.AccessToken); err != nil {
		log.Fatal().Err(err).Msg("login failed")
	}
	log.Info().Str("username", auth.User.Username).Msg("✅ logged in")

	if err := server.SaveProfile(ctx, *game, *account, *zone); err != nil {
		log.Fatal().Err(err).Msg("failed to save game profile")
	}

	order, err := server.CreateTransaction(ctx, *packageID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create transaction")
	}
	log.Info().
		Str("transaction_id", order.TransactionID()).
		Str("amount", order.Payment.Amount.String()).
		Str("memo", order.Payment.Memo).
		Msg("transaction created")

	res, err := walletbridge.Checkout(ctx, wallet, server, order)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ checkout failed")
	}
	log.Info().
		Str("payment_id", res.PaymentID).
		Str("txid", res.Txid).
		Str("status", res.Transaction.Status).
		Msg("✅ purchase completed")
}
