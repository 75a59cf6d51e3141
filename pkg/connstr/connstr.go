package connstr

import (
	"database/sql"
	"net"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

const (
	// DefaultMasterDatabase is the administrative database every MySQL server
	// has. Master connection strings are scoped to it.
	DefaultMasterDatabase = "mysql"

	// DefaultPort is used when the connection string does not specify one.
	DefaultPort = 3306

	// MaskChar replaces every character of a password in redacted output.
	MaskChar = "*"
)

var (
	// ErrInvalidArgument is returned when a required value is missing or blank.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformed is returned when a connection string cannot be split into
	// key=value segments.
	ErrMalformed = errors.New("malformed connection string")

	// ErrUnsupportedOption is returned by DSN when an option holds a value the
	// MySQL driver has no equivalent for.
	ErrUnsupportedOption = errors.New("unsupported connection string option")
)

var (
	databaseKeys = []string{"database"}
	passwordKeys = []string{"pwd", "password"}
	serverKeys   = []string{"server", "host", "data source", "datasource", "address", "addr"}
	portKeys     = []string{"port"}
	userKeys     = []string{"uid", "user", "user id", "userid", "username"}
	timeoutKeys  = []string{"connect timeout", "connection timeout", "connecttimeout"}
	commandKeys  = []string{"default command timeout", "command timeout", "defaultcommandtimeout"}
	sslKeys      = []string{"sslmode", "ssl mode"}
	charsetKeys  = []string{"charset", "character set", "characterset"}
)

type (
	// Descriptor is a parsed MySQL connection string.
	//
	// The raw text of every segment is retained so that String renders the
	// original input byte for byte. Derived descriptors (Master, Redacted) only
	// differ from their source in the values they substitute.
	Descriptor struct {
		segments []segment
	}

	segment struct {
		raw    string
		key    string
		value  string
		isPair bool
	}
)

// Parse parses a semicolon-delimited key=value connection string.
//
// Keys are matched case-insensitively. The string must contain a non-empty
// database value; the first database segment wins when there are duplicates.
//
// Example:
//
//	desc, err := connstr.Parse("Server=db;Database=orders;Uid=u;Pwd=secret")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println(desc.Database())          // orders
//	fmt.Println(desc.Master().String())   // Server=db;Database=mysql;Uid=u;Pwd=secret
//	fmt.Println(desc.Redacted().String()) // Server=db;Database=orders;Uid=u;Pwd=******
func Parse(raw string) (*Descriptor, error) {
	d, err := ParseUnscoped(raw)
	if err != nil {
		return nil, err
	}

	if d.Database() == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "connection string does not specify a database")
	}

	return d, nil
}

// ParseUnscoped is Parse without the database requirement. It is used for
// connections that are not tied to a particular database.
func ParseUnscoped(raw string) (*Descriptor, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "connection string is required")
	}

	segments, err := split(raw, true)
	if err != nil {
		return nil, err
	}

	return &Descriptor{segments: segments}, nil
}

// OpenDSN opens a handle for a go-sql-driver/mysql DSN. Like sql.Open, no
// connection is made until the handle is first used.
func OpenDSN(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse DSN")
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create MySQL connector")
	}

	return sql.OpenDB(connector), nil
}

// DatabaseName scans the connection string for the first database segment and
// returns its value. Malformed segments are skipped rather than reported, so it
// never fails; ok is false when no non-empty database value is present.
func DatabaseName(raw string) (string, bool) {
	segments, _ := split(raw, false)
	name := lookup(segments, databaseKeys)
	return name, name != ""
}

// Derive returns the target database and the master connection string for raw.
func Derive(raw string) (database, master string, err error) {
	d, err := Parse(raw)
	if err != nil {
		return "", "", err
	}

	return d.Database(), d.Master().String(), nil
}

// MasterConnectionString returns raw with its database replaced by
// DefaultMasterDatabase.
func MasterConnectionString(raw string) (string, error) {
	_, master, err := Derive(raw)
	return master, err
}

// Redact returns raw with the password masked.
func Redact(raw string) (string, error) {
	d, err := Parse(raw)
	if err != nil {
		return "", err
	}

	return d.Redacted().String(), nil
}

// Database returns the target database name.
func (d *Descriptor) Database() string {
	return lookup(d.segments, databaseKeys)
}

// Get returns the trimmed value of the first segment whose key matches (case
// insensitive) any of the given keys.
func (d *Descriptor) Get(keys ...string) string {
	return lookup(d.segments, keys)
}

// Master returns a copy scoped to DefaultMasterDatabase. Every database
// segment is rewritten; all other segments are preserved.
func (d *Descriptor) Master() *Descriptor {
	out := d.clone()
	for i := range out.segments {
		if out.segments[i].is(databaseKeys) {
			out.segments[i].value = DefaultMasterDatabase
		}
	}

	return out
}

// Redacted returns a copy with every password value replaced by a mask of the
// same length in characters. The receiver is left untouched.
func (d *Descriptor) Redacted() *Descriptor {
	out := d.clone()
	for i := range out.segments {
		if out.segments[i].is(passwordKeys) {
			out.segments[i].value = strings.Repeat(MaskChar, utf8.RuneCountInString(out.segments[i].value))
		}
	}

	return out
}

// String renders the descriptor in connection string form.
func (d *Descriptor) String() string {
	parts := make([]string, len(d.segments))
	for i, s := range d.segments {
		parts[i] = s.String()
	}

	return strings.Join(parts, ";")
}

// DSN converts the descriptor into a go-sql-driver/mysql data source name.
func (d *Descriptor) DSN() (string, error) {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.ParseTime = true
	cfg.User = d.Get(userKeys...)
	cfg.Passwd = d.Get(passwordKeys...)
	cfg.DBName = d.Database()

	host := d.Get(serverKeys...)
	if host == "" {
		host = "localhost"
	}

	port := strconv.Itoa(DefaultPort)
	if p := d.Get(portKeys...); p != "" {
		if _, err := strconv.Atoi(p); err != nil {
			return "", errors.Wrapf(ErrMalformed, "invalid port %q", p)
		}
		port = p
	}
	cfg.Addr = net.JoinHostPort(host, port)

	if v := d.Get(timeoutKeys...); v != "" {
		timeout, err := seconds(v)
		if err != nil {
			return "", err
		}
		cfg.Timeout = timeout
	}

	if v := d.Get(commandKeys...); v != "" {
		timeout, err := seconds(v)
		if err != nil {
			return "", err
		}
		cfg.ReadTimeout = timeout
		cfg.WriteTimeout = timeout
	}

	if v := d.Get(sslKeys...); v != "" {
		switch strings.ToLower(v) {
		case "none", "disabled":
			cfg.TLSConfig = "false"
		case "preferred":
			cfg.TLSConfig = "preferred"
		case "required", "verifyca", "verify_ca", "verifyfull", "verify_full":
			cfg.TLSConfig = "true"
		default:
			return "", errors.Wrapf(ErrUnsupportedOption, "sslmode %q", v)
		}
	}

	if v := d.Get(charsetKeys...); v != "" {
		cfg.Params = map[string]string{"charset": v}
	}

	// Keys without a driver equivalent (Pooling, Allow User Variables) are
	// ignored, never forwarded as session variables.
	return cfg.FormatDSN(), nil
}

func (d *Descriptor) clone() *Descriptor {
	segments := make([]segment, len(d.segments))
	copy(segments, d.segments)
	return &Descriptor{segments: segments}
}

func (s segment) String() string {
	if !s.isPair {
		return s.raw
	}

	return s.key + "=" + s.value
}

func (s segment) is(keys []string) bool {
	if !s.isPair {
		return false
	}

	key := strings.TrimSpace(s.key)
	for _, k := range keys {
		if strings.EqualFold(key, k) {
			return true
		}
	}

	return false
}

// split breaks raw into segments. Blank segments (e.g. a trailing ";") are kept
// verbatim. In strict mode a non-blank segment without "=" or with an empty key
// is an error; otherwise it is kept as an opaque segment.
func split(raw string, strict bool) ([]segment, error) {
	parts := strings.Split(raw, ";")
	segments := make([]segment, 0, len(parts))

	for i, part := range parts {
		if strings.TrimSpace(part) == "" {
			segments = append(segments, segment{raw: part})
			continue
		}

		idx := strings.Index(part, "=")
		if idx < 0 || strings.TrimSpace(part[:idx]) == "" {
			if strict {
				return nil, errors.Wrapf(ErrMalformed, "segment %d is not a key=value pair", i+1)
			}

			segments = append(segments, segment{raw: part})
			continue
		}

		segments = append(segments, segment{
			raw:    part,
			key:    part[:idx],
			value:  part[idx+1:],
			isPair: true,
		})
	}

	return segments, nil
}

func lookup(segments []segment, keys []string) string {
	for _, s := range segments {
		if s.is(keys) {
			return strings.TrimSpace(s.value)
		}
	}

	return ""
}

func seconds(v string) (time.Duration, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.Wrapf(ErrMalformed, "invalid timeout %q", v)
	}

	return time.Duration(n) * time.Second, nil
}

