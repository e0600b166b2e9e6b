package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/filevault/internal/flagx"
)

// envBindings maps flag names to the environment variables that may set them.
var envBindings = map[string]string{
	"a": "FILEVAULT_ADDR",
	"d": "DB_URI",
	"s": "JWT_SECRET",
	"k": "FILEVAULT_BLOB_BACKEND",
	"f": "FILEVAULT_UPLOAD_DIR",
	"m": "SMTP_HOST",
	"x": "FILEVAULT_CORS_ORIGIN",
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3001")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      token validity, hours
//	-o int      store/blob operation timeout, seconds
//	-l int      sessions kept per user
//	-k string   blob backend: disk or s3
//	-f string   upload directory for the disk backend
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-m string   SMTP host (empty disables mail delivery)
//	-x string   allowed CORS origin
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.Filter, avoiding collisions with other components.
//   - Variables listed in envBindings are applied before parsing, so a flag
//     on the command line beats the environment.
//   - Duration flags are accepted as integers and converted to time.Duration.
func parseFlags(config *Config) {
	args := flagx.Filter(os.Args[1:],
		"a", "d", "s", "t", "o", "l", "k", "f", "u", "p", "b", "g", "e", "m", "x")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Hours()), "token validity (in hours)")
	operationTimeout := fs.Int("o", int(config.OperationTimeout.Seconds()), "store/blob operation timeout (in seconds)")

	fs.IntVar(&config.SessionLimit, "l", config.SessionLimit, "sessions kept per user")
	fs.StringVar(&config.BlobBackend, "k", config.BlobBackend, "blob backend (disk|s3)")
	fs.StringVar(&config.UploadDir, "f", config.UploadDir, "upload directory")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.SMTPHost, "m", config.SMTPHost, "SMTP host")
	fs.StringVar(&config.CORSOrigin, "x", config.CORSOrigin, "allowed CORS origin")

	if err := flagx.ApplyEnv(fs, envBindings, os.LookupEnv); err != nil {
		panic(err)
	}

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Durations are only written back when set, so sub-unit values from the
	// JSON file survive the int round trip.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Hour
		case "o":
			config.OperationTimeout = time.Duration(*operationTimeout) * time.Second
		}
	})
}
