// internal/scrape/email/imap.go
package email_scrape

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// Message is a minimal representation of an email for scraping.
type Message struct {
	UID     imap.UID
	From    string
	Subject string
	Date    time.Time

	// Raw is the full RFC822 message, fetched with BODY.PEEK[] so the
	// server does not set \Seen.
	Raw []byte
}

// DialAndLogin connects over TLS and logs in. The connection is closed
// when ctx ends.
func DialAndLogin(ctx context.Context, host string, port int, username, password string) (*imapclient.Client, error) {
	if host == "" {
		return nil, errors.New("imap host is required")
	}
	if username == "" || password == "" {
		return nil, errors.New("imap username/password is required")
	}
	if port == 0 {
		port = 993
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host},
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}

	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	if err := c.Login(username, password).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return c, nil
}

func SelectMailbox(c *imapclient.Client, mailbox string) error {
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := c.Select(mailbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return fmt.Errorf("imap select %q: %w", mailbox, err)
	}
	return nil
}

// FetchUnseen pulls up to max unseen messages received since cutoff,
// newest first.
func FetchUnseen(ctx context.Context, c *imapclient.Client, since time.Time, max int) ([]Message, error) {
	if max <= 0 {
		max = 50
	}

	searchData, err := c.UIDSearch(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   since,
	}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search unseen: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > max {
		uids = uids[:max]
	}

	bodyAll := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
	fetchCmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	out := make([]Message, 0, len(uids))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		m := Message{UID: buf.UID}
		if buf.Envelope != nil {
			m.Subject = buf.Envelope.Subject
			m.Date = buf.Envelope.Date
			m.From = joinAddrs(buf.Envelope.From)
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			m.Raw = append([]byte(nil), b...)
		}
		if (m.Subject == "" || m.From == "" || m.Date.IsZero()) && len(m.Raw) > 0 {
			fillHeaders(&m)
		}
		out = append(out, m)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return out, nil
}

// MarkSeen sets \Seen on uids.
func MarkSeen(c *imapclient.Client, uids []imap.UID) error {
	if len(uids) == 0 {
		return nil
	}
	cmd := c.Store(imap.UIDSetNum(uids...), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("imap store add seen: %w", err)
	}
	return nil
}

func LogoutAndClose(c *imapclient.Client) {
	if c == nil {
		return
	}
	if err := c.Logout().Wait(); err != nil {
		log.Printf("[email] imap logout: %v", err)
	}
	_ = c.Close()
}

func joinAddrs(addrs []imap.Address) string {
	parts := make([]string, 0, len(addrs))
	for i := range addrs {
		a := strings.TrimSpace(addrs[i].Addr())
		if a == "" {
			a = strings.TrimSpace(addrs[i].Name)
		}
		if a != "" {
			parts = append(parts, a)
		}
	}
	return strings.Join(parts, ", ")
}

// fillHeaders is the net/mail fallback for servers that return a sparse
// envelope.
func fillHeaders(m *Message) {
	msg, err := mail.ReadMessage(strings.NewReader(string(m.Raw)))
	if err != nil {
		return
	}
	h := msg.Header
	if m.Subject == "" {
		m.Subject = h.Get("Subject")
	}
	if m.From == "" {
		m.From = h.Get("From")
	}
	if m.Date.IsZero() {
		if t, err := mail.ParseDate(h.Get("Date")); err == nil {
			m.Date = t
		}
	}
	_, _ = io.Copy(io.Discard, msg.Body)
}
