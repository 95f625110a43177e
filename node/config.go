package node

import (
	"fmt"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/tos-network/todochain/core"
	"github.com/tos-network/todochain/internal/todoapi"
	"github.com/tos-network/todochain/metrics"
	"github.com/tos-network/todochain/miner"
	"github.com/tos-network/todochain/params"
)

const (
	datadirChainData = "chaindata" // Path within the datadir to the chain database
	datadirKeyStore  = "keystore"  // Path within the datadir to the key files
)

const (
	DefaultHTTPHost = "localhost" // Default host interface for the HTTP API server
	DefaultHTTPPort = 8645        // Default TCP port for the HTTP API server
)

// Config represents a small collection of configuration values to fine tune
// the node. Values are loaded from a TOML file and then overridden by
// command line flags.
type Config struct {
	// DataDir is the file system folder the node should use for its chain
	// database and key files. An empty DataDir runs the node on an ephemeral
	// in-memory database.
	DataDir string

	// KeyStoreDir overrides the default <datadir>/keystore location.
	KeyStoreDir string `toml:",omitempty"`

	DatabaseCache   int
	DatabaseHandles int `toml:"-"`

	// HTTPHost is the host interface on which to start the HTTP API server.
	// An empty host disables the server.
	HTTPHost string `toml:",omitempty"`
	HTTPPort int    `toml:",omitempty"`

	// GasPrice is the price in wei the node suggests to clients.
	GasPrice uint64

	API     todoapi.Config
	Miner   miner.Config
	Metrics metrics.Config

	// Genesis is used when the database holds no chain yet. A nil genesis
	// selects the development genesis.
	Genesis *core.Genesis `toml:"-"`
}

// DefaultConfig contains reasonable default settings.
var DefaultConfig = Config{
	DataDir:         DefaultDataDir(),
	DatabaseCache:   512,
	DatabaseHandles: 256,
	HTTPHost:        DefaultHTTPHost,
	HTTPPort:        DefaultHTTPPort,
	GasPrice:        params.GWei,
	API:             todoapi.DefaultConfig,
	Miner:           miner.DefaultConfig,
	Metrics:         metrics.DefaultConfig,
}

// ResolvePath resolves path in the data directory.
func (c *Config) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if c.DataDir == "" {
		return ""
	}
	return filepath.Join(c.DataDir, path)
}

// KeyDirConfig determines the settings for the keydirectory.
func (c *Config) KeyDirConfig() string {
	if c.KeyStoreDir != "" {
		return c.KeyStoreDir
	}
	return c.ResolvePath(datadirKeyStore)
}

// ChainDir is the location of the chain database, empty for an in-memory node.
func (c *Config) ChainDir() string {
	return c.ResolvePath(datadirChainData)
}

// HTTPEndpoint resolves an HTTP endpoint based on the configured host interface
// and port parameters.
func (c *Config) HTTPEndpoint() string {
	if c.HTTPHost == "" {
		return ""
	}
	return net.JoinHostPort(c.HTTPHost, strconv.Itoa(c.HTTPPort))
}

// MetricsEndpoint is the listen address of the prometheus exporter.
func (c *Config) MetricsEndpoint() string {
	return net.JoinHostPort(c.Metrics.HTTP, strconv.Itoa(c.Metrics.Port))
}

func (c *Config) String() string {
	return fmt.Sprintf("datadir=%q http=%q metrics=%v", c.DataDir, c.HTTPEndpoint(), c.Metrics.Enabled)
}

// DefaultDataDir is the default data directory to use for the databases and other
// persistence requirements.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := homeDir()
	if home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Todochain")
		case "windows":
			appdata := os.Getenv("LOCALAPPDATA")
			if appdata == "" {
				appdata = filepath.Join(home, "AppData", "Local")
			}
			return filepath.Join(appdata, "Todochain")
		default:
			return filepath.Join(home, ".todochain")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
