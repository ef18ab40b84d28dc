package shipper

// Version is the client version reported in the User-Agent header.
const Version = "1.0.0"

// UserAgent returns the User-Agent sent with every batch.
func UserAgent() string {
	return "logship/" + Version
}
