package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"wallet-cleanup-sol/internal/consts"

	"github.com/go-playground/validator/v10"
	"github.com/mr-tron/base58"
	"github.com/zeromicro/go-zero/core/conf"
)

// 兼容旧命令行工具的环境变量
const (
	EnvRpc                  = "WC_RPC"
	EnvPrivateKey           = "WC_PRIVATE_KEY"
	EnvSimulate             = "WC_SIMULATE"
	EnvParallelTransactions = "WC_PARALLEL_TX"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("pubkey", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		b, err := base58.Decode(s)
		return err == nil && len(b) == 32
	})
	return v
}

// Load 读取配置文件（支持 ${VAR} 展开），文件不存在时只填充默认值，随后应用 WC_* 环境变量
func Load(path string) (Config, error) {
	var c Config
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := conf.Load(path, &c, conf.UseEnv()); err != nil {
				return Config{}, fmt.Errorf("load config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("stat config %s: %w", path, err)
		} else if err := conf.FillDefault(&c); err != nil {
			return Config{}, fmt.Errorf("fill default config: %w", err)
		}
	} else if err := conf.FillDefault(&c); err != nil {
		return Config{}, fmt.Errorf("fill default config: %w", err)
	}

	if err := c.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvRpc); ok && v != "" {
		c.Rpc = v
	}
	if v, ok := lookup(EnvPrivateKey); ok && v != "" {
		c.PrivateKey = v
	}
	if v, ok := lookup(EnvSimulate); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", EnvSimulate, v, err)
		}
		c.BatchConf.SimulateOnly = b
	}
	if v, ok := lookup(EnvParallelTransactions); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", EnvParallelTransactions, v, err)
		}
		c.BatchConf.ParallelTransactions = n
	}
	return nil
}

// Validate 校验配置取值范围
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.FeeConf.FeePerInstructionSol > 0 && c.FeeConf.FeeReceiver == "" {
		return errors.New("invalid config: fee.fee_receiver is required when fee_per_instruction_sol > 0")
	}
	if c.FeeConf.ComputeUnitLimit > consts.ComputeUnits {
		return fmt.Errorf("invalid config: fee.compute_unit_limit %d exceeds %d", c.FeeConf.ComputeUnitLimit, consts.ComputeUnits)
	}
	return nil
}

// ValidateRpc 单独校验 RPC 地址，便于入口返回独立的退出码
func (c *Config) ValidateRpc() error {
	if err := validate.Var(c.Rpc, "required,url"); err != nil {
		return fmt.Errorf("invalid rpc endpoint %q: %w", c.Rpc, err)
	}
	if !strings.HasPrefix(c.Rpc, "http://") && !strings.HasPrefix(c.Rpc, "https://") {
		return fmt.Errorf("invalid rpc endpoint %q: scheme must be http or https", c.Rpc)
	}
	return nil
}
