// Package config parses the bridge's on-disk configuration plus flag
// overrides, following the teacher's jessevdk/go-flags convention: a single
// annotated struct, a defaulted base config, and an explicit Load step that
// callers run once at startup so the rest of the program never has to
// guard against zero values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	flags "github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename   = "banbridge.conf"
	defaultLogFilename      = "banbridge.log"
	defaultLogLevel         = "info"
	defaultMaxLogRolls      = 3
	defaultQueueConcurrency = 8
	defaultScanSafetyDepth  = 12
	defaultScanInterval     = 15 * time.Second
	defaultGenesisBlock     = uint64(0)
	defaultGaslessSwapCap   = "1000000000000000000" // 1 wBAN (10^18 base units)
)

// RedisConfig groups the connection parameters for the shared key-value
// store backing the ledger, lock manager, and queue.
type RedisConfig struct {
	Addr     string `long:"addr" description:"host:port of the Redis server"`
	Password string `long:"password" description:"Redis AUTH password" json:"-"`
	DB       int    `long:"db" description:"Redis logical database index"`
}

// Config is the fully-resolved configuration for a running bridge process.
type Config struct {
	ConfigFile  string `short:"C" long:"configfile" description:"path to configuration file"`
	LogDir      string `long:"logdir" description:"directory to log to"`
	LogLevel    string `long:"loglevel" description:"default log level for all subsystems"`
	MaxLogRolls int    `long:"maxlogrolls" description:"number of rotated log files to keep"`

	Redis RedisConfig `group:"Redis" namespace:"redis"`

	HotWalletAddr string `long:"hotwalletaddr" description:"native address holding funds available for withdrawals"`

	QueueConcurrency int `long:"queueconcurrency" description:"number of concurrent workers per machinery server"`

	ScanSafetyDepth uint64        `long:"scansafetydepth" description:"number of confirmations to hold back from chain head before scanning"`
	ScanInterval    time.Duration `long:"scaninterval" description:"polling interval between chain scans"`
	GenesisBlock    uint64        `long:"genesisblock" description:"block height to start scanning from when no checkpoint exists"`

	GaslessSwapCapBaseUnits string `long:"gaslessswapcap" description:"maximum amount, in base units, a gasless swap may mint"`

	ExplorerBaseURL string `long:"explorerbaseurl" description:"base URL for EVM transaction explorer links"`

	NativeRPCURL   string `long:"nativerpcurl" description:"BAN node JSON-RPC action API URL"`
	NativeWalletID string `long:"nativewalletid" description:"wallet id holding the hot wallet account"`

	EVMRPCURL        string `long:"evmrpcurl" description:"EVM node JSON-RPC URL"`
	EVMSignerKeyHex  string `long:"evmsignerkey" description:"hex-encoded ECDSA private key used to sign mint receipts" json:"-"`
	WBANContractAddr string `long:"wbancontract" description:"wBAN ERC-20 contract address"`

	BlacklistFile string `long:"blacklistfile" description:"path to the static wallet blacklist file"`
}

// Default returns a Config populated with the bridge's default values. The
// caller is expected to overlay a config file and flags on top of it.
func Default() *Config {
	return &Config{
		LogLevel:                defaultLogLevel,
		MaxLogRolls:             defaultMaxLogRolls,
		QueueConcurrency:        defaultQueueConcurrency,
		ScanSafetyDepth:         defaultScanSafetyDepth,
		ScanInterval:            defaultScanInterval,
		GenesisBlock:            defaultGenesisBlock,
		GaslessSwapCapBaseUnits: defaultGaslessSwapCap,
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
		},
	}
}

// Load parses the configuration file (if present) and then flag overrides
// into a defaulted Config, mirroring the two-pass file-then-flags loading
// the teacher's node config performs.
func Load(args []string) (*Config, error) {
	cfg := Default()

	preCfg := *cfg
	preParser := flags.NewParser(&preCfg, flags.Default)
	if _, err := preParser.ParseArgs(args); err != nil {
		return nil, err
	}
	if preCfg.ConfigFile == "" {
		preCfg.ConfigFile = defaultConfigFilename
	}

	if _, err := os.Stat(preCfg.ConfigFile); err == nil {
		fileParser := flags.NewParser(cfg, flags.Default)
		if err := flags.NewIniParser(fileParser).ParseFile(preCfg.ConfigFile); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w",
				preCfg.ConfigFile, err)
		}
	}

	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if cfg.LogDir == "" {
		cfg.LogDir = "."
	}
	cfg.LogDir = filepath.Clean(cfg.LogDir)

	return cfg, nil
}

// LogFile returns the path the root log rotator should write to.
func (c *Config) LogFile() string {
	return filepath.Join(c.LogDir, defaultLogFilename)
}
