package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loanchain/config"
	"loanchain/crypto"
	"loanchain/native/atm"
	"loanchain/native/collateral"
	"loanchain/native/consensus"
	"loanchain/native/escrow"
	"loanchain/native/loans"
	"loanchain/native/params"
	"loanchain/native/pool"
	"loanchain/observability/logging"
	"loanchain/observability/metrics"
	"loanchain/state"
)

const collateralAssetName = "LINK"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("LOANCHAIN_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		logging.Setup("loanchaind", env).Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if env == "" {
		env = cfg.Environment
	}
	logger := logging.SetupWithOptions("loanchaind", env, logging.Options{File: cfg.LogFile})

	settings := params.NewStore()
	for name, value := range cfg.PlatformSettings {
		settings.SetPlatformSetting(name, value)
	}
	if cfg.AssetSettingsPath != "" {
		assetSettings, err := params.LoadAssetSettings(cfg.AssetSettingsPath)
		if err != nil {
			logger.Error("Failed to load asset settings", slog.Any("error", err))
			os.Exit(1)
		}
		for asset, entry := range assetSettings {
			settings.SetAssetSettings(asset, entry)
		}
	} else {
		settings.SetAssetSettings(cfg.LendAsset, params.AssetSettings{AdapterMarket: cfg.AdapterMarket})
	}
	if cfg.PauserAddress != "" {
		pauser, err := crypto.DecodeAddress(cfg.PauserAddress)
		if err != nil {
			logger.Error("Invalid pauser address", slog.Any("error", err))
			os.Exit(1)
		}
		settings.AddPauser(pauser)
	}

	manager := state.NewManager()

	poolAddr := moduleAccount("module/pool/" + cfg.LendAsset)
	loansAddr := moduleAccount("module/loans/" + cfg.LendAsset)
	vaultAddr := moduleAccount("module/loans/collateral-vault/" + cfg.LendAsset)
	escrowAddr := moduleAccount("module/escrow/" + cfg.LendAsset)

	recorder := metrics.NewRecorder(nil)

	registry := consensus.NewMemoryRegistry()
	validator := consensus.NewValidator("loans/"+cfg.LendAsset, settings, registry)

	oracle := collateral.NewStaticOracle()
	oracle.SetRate(cfg.LendAsset, collateralAssetName, big.NewInt(1), big.NewInt(1))

	poolEngine := pool.NewEngine(cfg.LendAsset, poolAddr)
	poolEngine.SetState(manager)
	poolEngine.SetLoansAddress(loansAddr)
	if cfg.AdapterMarket != "" {
		poolEngine.SetAdapter(pool.NewSimulatedMarket(cfg.LendAsset))
	}
	poolEngine.SetEmitter(recorder)

	collateralEngine := collateral.NewEngine(cfg.LendAsset, collateralAssetName, settings)
	collateralEngine.SetOracle(oracle)
	collateralEngine.SetMarkets(poolEngine)
	collateralEngine.SetATMView(atm.NewRegistry())

	escrowEngine := escrow.NewEngine()
	escrowEngine.SetState(manager.EscrowState())
	escrowEngine.SetEmitter(recorder)
	var escrowCustody [20]byte
	copy(escrowCustody[:], escrowAddr.Bytes())
	escrowEngine.SetModuleAddress(escrowCustody)

	loansEngine := loans.NewEngine(cfg.LendAsset, loansAddr, vaultAddr, settings)
	loansEngine.SetState(manager)
	loansEngine.SetValidator(validator)
	loansEngine.SetCollateralEngine(collateralEngine)
	loansEngine.SetPool(poolEngine)
	loansEngine.SetEscrowEngine(escrowEngine)
	loansEngine.SetEmitter(recorder)

	logger.Info("Engines wired",
		slog.String("lendAsset", cfg.LendAsset),
		slog.String("poolModule", poolAddr.String()),
		slog.String("loansModule", loansAddr.String()),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := &http.Server{
		Addr:              cfg.MetricsAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Metrics server listening", slog.String("address", cfg.MetricsAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics server shutdown failed", slog.Any("error", err))
	}
}

// moduleAccount derives a deterministic 20-byte module address from a label.
func moduleAccount(label string) crypto.Address {
	hash := ethcrypto.Keccak256([]byte(label))
	return crypto.MustNewAddress(crypto.LendPrefix, hash[12:])
}
