package cmn

import (
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Credentials carries the optional username/password pair sent during
// connection handshake. A zero-value Credentials is treated as "unset" and
// no AUTH frame is issued.
type Credentials struct {
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
}

// Options collects every recognized connection/cluster option named in
// the design's External Interfaces section. It is assembled either via
// functional constructors (the teacher's BaseParams idiom) or decoded from
// a JSON options file with json-iterator.
type Options struct {
	Endpoints []string `json:"endpoints"`

	Credentials Credentials `json:"credentials"`

	PreferRESP3 bool `json:"prefer_resp3"`
	TLSEnabled  bool `json:"tls_enabled"`

	ConnectTimeout time.Duration `json:"connect_timeout"`
	CommandTimeout time.Duration `json:"command_timeout"`
	Keepalive      time.Duration `json:"keepalive"`

	ClientName    string `json:"client_name"`
	DatabaseIndex int    `json:"database_index"`

	MaxRedirects    int  `json:"max_redirects"`
	AutoHandleMoved bool `json:"auto_handle_moved"`
	AutoHandleAsk   bool `json:"auto_handle_ask"`

	ParserMaxDepth    int `json:"parser_max_depth"`
	ParserMaxElements int `json:"parser_max_elements"`
	ParserMaxBulk     int `json:"parser_max_bulk"`

	// SubmissionQueueBound, if non-zero, bounds the writer's submission
	// channel for back-pressure (§5 Back-pressure).
	SubmissionQueueBound int `json:"submission_queue_bound"`

	// StagingBufferCeiling bounds the reader's inbound growing buffer;
	// exceeding it before a complete frame arrives fails the connection
	// closed (§5 Back-pressure).
	StagingBufferCeiling int `json:"staging_buffer_ceiling"`
}

// DefaultOptions returns an Options populated with every default named in
// the design (§6 Configuration, §4.1 parser ceilings, §5 buffer sizes).
func DefaultOptions() Options {
	return Options{
		PreferRESP3:          true,
		ConnectTimeout:       10 * time.Second,
		CommandTimeout:       0, // no default per-call deadline unless the caller sets one
		Keepalive:            30 * time.Second,
		MaxRedirects:         5,
		AutoHandleMoved:      true,
		AutoHandleAsk:        true,
		ParserMaxDepth:       32,
		ParserMaxElements:    1_000_000,
		ParserMaxBulk:        512 * 1024 * 1024,
		SubmissionQueueBound: 0, // unbounded by default
		StagingBufferCeiling: 16 * 1024,
	}
}

// Option mutates an Options under construction; see With* constructors.
type Option func(*Options)

// BuildOptions applies DefaultOptions followed by every given Option, the
// teacher's functional-assembly idiom over a shared params struct.
func BuildOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithEndpoints(endpoints ...string) Option {
	return func(o *Options) { o.Endpoints = endpoints }
}

func WithCredentials(user, password string) Option {
	return func(o *Options) { o.Credentials = Credentials{User: user, Password: password} }
}

func WithPreferRESP3(prefer bool) Option { return func(o *Options) { o.PreferRESP3 = prefer } }

func WithTLS(enabled bool) Option { return func(o *Options) { o.TLSEnabled = enabled } }

func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) { o.ConnectTimeout = d }
}

func WithCommandTimeout(d time.Duration) Option {
	return func(o *Options) { o.CommandTimeout = d }
}

func WithKeepalive(d time.Duration) Option { return func(o *Options) { o.Keepalive = d } }

func WithClientName(name string) Option { return func(o *Options) { o.ClientName = name } }

func WithDatabaseIndex(idx int) Option { return func(o *Options) { o.DatabaseIndex = idx } }

func WithMaxRedirects(n int) Option { return func(o *Options) { o.MaxRedirects = n } }

func WithAutoHandleMoved(b bool) Option { return func(o *Options) { o.AutoHandleMoved = b } }

func WithAutoHandleAsk(b bool) Option { return func(o *Options) { o.AutoHandleAsk = b } }

func WithParserLimits(depth, elements, bulk int) Option {
	return func(o *Options) {
		o.ParserMaxDepth, o.ParserMaxElements, o.ParserMaxBulk = depth, elements, bulk
	}
}

// LoadOptionsFile decodes a JSON options file into an Options, layered
// over DefaultOptions for any field the file omits.
func LoadOptionsFile(path string) (Options, error) {
	o := DefaultOptions()
	b, err := os.ReadFile(path)
	if err != nil {
		return o, err
	}
	if err := jsoniter.Unmarshal(b, &o); err != nil {
		return o, err
	}
	return o, nil
}
