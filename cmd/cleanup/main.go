package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"wallet-cleanup-sol/internal/config"
	"wallet-cleanup-sol/internal/consts"
	"wallet-cleanup-sol/internal/ledger"
	"wallet-cleanup-sol/internal/logic/cleanup"
	"wallet-cleanup-sol/internal/logic/packer"
	"wallet-cleanup-sol/internal/pkg/logger"
	"wallet-cleanup-sol/internal/report"
	"wallet-cleanup-sol/internal/svc"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/spf13/cobra"
	"github.com/zeromicro/go-zero/core/logx"
)

const Version = "0.1.0"

// 命令行参数，非空时覆盖配置文件与环境变量
var flags struct {
	ConfigFile           string
	Rpc                  string
	PrivateKey           string
	SimulateOnly         bool
	ParallelTransactions int
}

// exitError 携带进程退出码
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	return &exitError{code: code, err: err}
}

var rootCmd = &cobra.Command{
	Use:     "wallet-cleanup",
	Short:   "Close empty SPL token accounts and recover their rent",
	Version: Version,
	Example: `  # Close empty token accounts using a keypair file
  wallet-cleanup -k ~/.config/solana/id.json

  # Dry run against a custom RPC with 10 parallel transactions
  wallet-cleanup -r https://my-rpc.example.org -k <base58> -s -p 10`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&flags.ConfigFile, "config", "f", "etc/cleanup.yaml", "the config file")
	rootCmd.Flags().StringVarP(&flags.Rpc, "rpc", "r", "", "Solana RPC endpoint")
	rootCmd.Flags().StringVarP(&flags.PrivateKey, "private-key", "k", "",
		"private key: keypair file path, JSON byte array or base58 string")
	rootCmd.Flags().BoolVarP(&flags.SimulateOnly, "simulate-only", "s", false, "simulate transactions without sending them")
	rootCmd.Flags().IntVarP(&flags.ParallelTransactions, "parallel-transactions", "p", 0,
		"transactions sent concurrently per window (default 5)")
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
			os.Exit(1)
		}
	}()

	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	if err == nil {
		return consts.ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return consts.ExitConfig
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	c, err := config.Load(flags.ConfigFile)
	if err != nil {
		return c, err
	}
	if cmd.Flags().Changed("rpc") {
		c.Rpc = flags.Rpc
	}
	if cmd.Flags().Changed("private-key") {
		c.PrivateKey = flags.PrivateKey
	}
	if cmd.Flags().Changed("simulate-only") {
		c.BatchConf.SimulateOnly = flags.SimulateOnly
	}
	if cmd.Flags().Changed("parallel-transactions") {
		c.BatchConf.ParallelTransactions = flags.ParallelTransactions
	}
	return c, nil
}

func run(cmd *cobra.Command, _ []string) error {
	c, err := loadConfig(cmd)
	if err != nil {
		return exitWith(consts.ExitConfig, err)
	}
	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		return exitWith(consts.ExitConfig, err)
	}

	if c.PrivateKey == "" {
		return exitWith(consts.ExitPrivateKey, errors.New("private key is required (--private-key or WC_PRIVATE_KEY)"))
	}
	account, err := ledger.LoadAccount(c.PrivateKey)
	if err != nil {
		return exitWith(consts.ExitPrivateKey, err)
	}
	if err := c.ValidateRpc(); err != nil {
		return exitWith(consts.ExitRpc, err)
	}
	if err := c.Validate(); err != nil {
		return exitWith(consts.ExitConfig, err)
	}

	sc, err := svc.NewServiceContext(c, account)
	if err != nil {
		return exitWith(consts.ExitRpc, err)
	}
	defer sc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pre, err := cleanup.CheckWallet(ctx, sc.Ledger, sc.Discovery, sc.Signer.PublicKey())
	if err != nil {
		return exitWith(consts.ExitRpc, err)
	}
	if c.BatchConf.SimulateOnly {
		logger.Infof("Simulation mode, no transaction will be sent")
	}

	opts := cleanup.Options{
		ParallelTransactions:      c.BatchConf.ParallelTransactions,
		ConfirmationTimeout:       time.Duration(c.BatchConf.ConfirmationTimeoutSec) * time.Second,
		AbortOnFail:               c.BatchConf.AbortOnFail,
		NoRetry:                   c.BatchConf.NoRetry,
		SimulateOnly:              c.BatchConf.SimulateOnly,
		ComputeUnitLimit:          c.FeeConf.ComputeUnitLimit,
		ComputeUnitPrice:          c.FeeConf.ComputeUnitPrice,
		FeePerInstructionLamports: uint64(c.FeeConf.FeePerInstructionSol * consts.LamportsPerSOL),
		Anchor:                    &pre.Anchor,
	}
	if c.FeeConf.FeeReceiver != "" {
		opts.FeeReceiver = common.PublicKeyFromString(c.FeeConf.FeeReceiver)
	}
	if sc.Publisher != nil {
		opts.OnWindow = sc.Publisher.PublishWindow
	}

	rep := &report.JobReport{
		Wallet:       sc.Signer.PublicKey().ToBase58(),
		Rpc:          c.Rpc,
		SimulateOnly: c.BatchConf.SimulateOnly,
		StartedAt:    time.Now(),
	}

	sum, err := cleanup.CloseEmptyTokenAccounts(ctx, sc.Discovery, sc.Ledger, sc.Signer, opts)
	if err != nil {
		return jobError(err)
	}

	if sc.Publisher != nil {
		sc.Publisher.PublishSummary(sum.Result)
	}
	if c.ReportFile != "" {
		writeReport(rep, sum, c.ReportFile)
	}
	return nil
}

// jobError 打包失败说明手续费或计算单元配置不可用；其余失败只记录日志，进程正常退出
func jobError(err error) error {
	var packErr *packer.PackingError
	if errors.As(err, &packErr) {
		return exitWith(consts.ExitConfig, err)
	}
	logger.Errorf("[Cleanup] %v", err)
	return nil
}

func writeReport(rep *report.JobReport, sum cleanup.Summary, path string) {
	rep.Accounts = sum.Accounts
	rep.RentLamports = sum.RentLamports
	rep.Fill(sum.Result)
	rep.FinishedAt = time.Now()
	if err := rep.Write(path); err != nil {
		logger.Warnf("write report failed: %v", err)
		return
	}
	logger.Infof("Report written to %s", path)
}
