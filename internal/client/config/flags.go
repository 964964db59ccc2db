package config

import (
	"github.com/spf13/pflag"
)

// BindFlags registers the command-line flags on fs, writing straight into c.
// Current values of c become the flag defaults, so bind after Load.
//
//	-c, --config string                path to JSON config file
//	-a, --addr string                  backend base URL
//	-s, --store string                 credential store file
//	-t, --timeout duration             per-request timeout
//	-i, --revalidate-interval duration session revalidation period
//	-l, --log-level string             debug, info, warn or error
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	// Read by Load before the flags are parsed; registered so it is accepted.
	fs.StringP("config", "c", "", "path to JSON config file")

	fs.StringVarP(&c.ServerURL, "addr", "a", c.ServerURL, "backend base URL")
	fs.StringVarP(&c.StorePath, "store", "s", c.StorePath, "credential store file")
	fs.DurationVarP(&c.RequestTimeout, "timeout", "t", c.RequestTimeout, "per-request timeout")
	fs.DurationVarP(&c.RevalidateInterval, "revalidate-interval", "i", c.RevalidateInterval, "session revalidation period")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "debug, info, warn or error")
}
