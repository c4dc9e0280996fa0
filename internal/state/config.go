package state

import (
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"

	"github.com/mavgate/mavgate/helpers"
	"github.com/mavgate/mavgate/internal/mirror"
	"github.com/mavgate/mavgate/log2"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Mavlink struct {
		// pymavlink-style connection string; 14551 avoids the
		// QGroundControl default port 14550
		Connect     string   `hcl:"connect"`
		SystemId    int      `hcl:"system_id"`
		ComponentId int      `hcl:"component_id"`
		Allow       []string `hcl:"allow"` // empty = all types pass
		Deny        []string `hcl:"deny"`
		RateLimit   int      `hcl:"rate_limit"` // msg/s warning ceiling, 0 = disabled
		PollMs      int      `hcl:"poll_ms"`
	} `hcl:"mavlink"`

	WS struct {
		ListenHost     string `hcl:"listen_host"`
		ListenPort     int    `hcl:"listen_port"`
		WriteTimeoutMs int    `hcl:"write_timeout_ms"`
	} `hcl:"ws"`

	Mirror mirror.Config `hcl:"mirror"`

	Log struct {
		Debug bool `hcl:"debug"`
	} `hcl:"log"`

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

// NewConfig returns the defaults matching the reference deployment.
func NewConfig() *Config {
	c := &Config{includeSeen: make(map[string]struct{})}
	c.Mavlink.Connect = "udpin:0.0.0.0:14551"
	c.Mavlink.SystemId = 255
	c.Mavlink.ComponentId = 0
	c.Mavlink.RateLimit = 500
	c.Mavlink.PollMs = 10
	c.WS.ListenHost = "0.0.0.0"
	c.WS.ListenPort = 8765
	return c
}

func (c *Config) ListenAddr() string {
	return c.WS.ListenHost + ":" + strconv.Itoa(c.WS.ListenPort)
}

func (c *Config) Validate() error {
	errs := make([]error, 0)
	if c.Mavlink.Connect == "" {
		errs = append(errs, errors.NotValidf("config: mavlink.connect=empty"))
	}
	if c.Mavlink.SystemId < 0 || c.Mavlink.SystemId > 255 {
		errs = append(errs, errors.NotValidf("config: mavlink.system_id=%d", c.Mavlink.SystemId))
	}
	if c.Mavlink.ComponentId < 0 || c.Mavlink.ComponentId > 255 {
		errs = append(errs, errors.NotValidf("config: mavlink.component_id=%d", c.Mavlink.ComponentId))
	}
	// port 0 binds an ephemeral port
	if c.WS.ListenPort < 0 || c.WS.ListenPort > 65535 {
		errs = append(errs, errors.NotValidf("config: ws.listen_port=%d", c.WS.ListenPort))
	}
	if c.Mavlink.RateLimit < 0 {
		errs = append(errs, errors.NotValidf("config: mavlink.rate_limit=%d", c.Mavlink.RateLimit))
	}
	return helpers.FoldErrors(errs)
}

// ApplyEnv overlays the environment surface of the original deployment
// on top of file config. Empty values leave the config untouched.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	errs := make([]error, 0)
	if v := getenv("MAVLINK_CONNECTION"); v != "" {
		c.Mavlink.Connect = v
	}
	if v := getenv("WEBSOCKET_HOST"); v != "" {
		c.WS.ListenHost = v
	}
	if v := getenv("WEBSOCKET_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.WS.ListenPort = n
		} else {
			errs = append(errs, errors.NotValidf("env WEBSOCKET_PORT=%s", v))
		}
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Debug = log2.LevelFromString(v) >= log2.LDebug
	}
	if v := getenv("MESSAGE_FILTER"); v != "" {
		c.Mavlink.Allow = splitList(v)
	}
	if v := getenv("MESSAGE_IGNORE"); v != "" {
		c.Mavlink.Deny = splitList(v)
	}
	if v := getenv("MAX_MESSAGE_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Mavlink.RateLimit = n
		} else {
			errs = append(errs, errors.NotValidf("env MAX_MESSAGE_RATE=%s", v))
		}
	}
	if v := getenv("MQTT_BROKER"); v != "" {
		c.Mirror.Enable = true
		c.Mirror.Broker = v
	}
	return helpers.FoldErrors(errs)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		log.Fatalf("config duplicate source=%s", source.Name)
	} else {
		log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	}
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
			return
		}
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := NewConfig()
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
