package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FetchFTP downloads an ftp:// URL to dest and returns the byte count.
// Credentials may be embedded in the URL userinfo; anonymous login is
// used otherwise. Some archive mirrors still publish geotagged photo
// dumps this way.
func FetchFTP(ctx context.Context, rawURL, dest string, timeout time.Duration) (int64, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, eris.Wrap(err, "parse ftp url")
	}
	if u.Scheme != "ftp" {
		return 0, eris.Errorf("expected ftp scheme, got %q", u.Scheme)
	}
	if u.Path == "" {
		return 0, eris.New("ftp url has no path")
	}

	host := u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	user, pass := "anonymous", "anonymous@"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}

	zap.L().Debug("ftp download",
		zap.String("host", host),
		zap.String("path", u.Path),
		zap.String("dest", dest))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return 0, eris.Wrap(err, "ftp dial")
	}
	defer conn.Quit() //nolint:errcheck

	if err := conn.Login(user, pass); err != nil {
		return 0, eris.Wrap(err, "ftp login")
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return 0, eris.Wrap(err, "ftp retrieve")
	}
	defer resp.Close() //nolint:errcheck

	out, err := os.Create(dest)
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}

	n, err := io.Copy(out, resp)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, eris.Wrap(err, "write file")
	}
	return n, nil
}
