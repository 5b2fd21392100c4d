package util

import (
	"errors"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/seaweedfs/ecsplit/weed/glog"
)

const envPrefix = "ecsplit"

// ConfigurationFileDirectory is searched first by LoadConfiguration.
var ConfigurationFileDirectory DirectoryValueType

type DirectoryValueType string

func (s *DirectoryValueType) Set(value string) error {
	*s = DirectoryValueType(value)
	return nil
}
func (s *DirectoryValueType) String() string {
	return string(*s)
}

// Configuration is the read side of a viper instance plus defaults.
type Configuration interface {
	GetString(key string) string
	GetInt(key string) int
	SetDefault(key string, value interface{})
}

func configSearchPaths() []string {
	return []string{
		ResolvePath(ConfigurationFileDirectory.String()),
		".",
		"$HOME/." + envPrefix,
		"/etc/" + envPrefix + "/",
	}
}

// LoadConfiguration merges <name>.toml into the global viper instance. A
// missing file is fatal only when required; a malformed one always is.
func LoadConfiguration(name string, required bool) (loaded bool) {
	viper.SetConfigName(name)
	for _, dir := range configSearchPaths() {
		viper.AddConfigPath(dir)
	}

	if err := viper.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			glog.Fatalf("reading %s: %v", viper.ConfigFileUsed(), err)
		}
		if required {
			glog.Fatalf("%s.toml not found in %s", name, strings.Join(configSearchPaths(), ", "))
		}
		glog.V(1).Infof("no %s.toml: %v", name, err)
		return false
	}
	glog.V(1).Infof("loaded %s", viper.ConfigFileUsed())
	return true
}

// ViperProxy serializes access to a viper instance, which is not safe for
// concurrent use.
type ViperProxy struct {
	*viper.Viper
	sync.Mutex
}

var vp = &ViperProxy{}

func (vp *ViperProxy) SetDefault(key string, value interface{}) {
	vp.Lock()
	defer vp.Unlock()
	vp.Viper.SetDefault(key, value)
}

func (vp *ViperProxy) GetString(key string) string {
	vp.Lock()
	defer vp.Unlock()
	return vp.Viper.GetString(key)
}

func (vp *ViperProxy) GetInt(key string) int {
	vp.Lock()
	defer vp.Unlock()
	return vp.Viper.GetInt(key)
}

// GetViper returns the global configuration; ECSPLIT_EC_SPLIT_MEMORY_LIMIT
// overrides ec.split.memory_limit and so on.
func GetViper() *ViperProxy {
	vp.Lock()
	defer vp.Unlock()

	if vp.Viper == nil {
		vp.Viper = viper.GetViper()
		vp.AutomaticEnv()
		vp.SetEnvPrefix(envPrefix)
		vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	}
	return vp
}

// NewViperProxy wraps a private viper instance, mostly for tests that must
// not touch the global configuration.
func NewViperProxy(v *viper.Viper) *ViperProxy {
	return &ViperProxy{Viper: v}
}
