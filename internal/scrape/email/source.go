package email_scrape

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"

	"github.com/Achi00/jobs-server/internal/config"
	"github.com/Achi00/jobs-server/internal/domain"
	"github.com/Achi00/jobs-server/internal/scrape/types"
)

const lookback = 90 * 24 * time.Hour

// Source reads unseen LinkedIn job-alert emails. Only mails that produced
// fragments are marked \Seen, and only after the batch is stored.
type Source struct {
	Cfg      config.Config
	Password func() (string, error)
	Now      func() time.Time
}

func (s *Source) Name() string { return "email" }

func (s *Source) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Source) Fetch(ctx context.Context) (types.Batch, error) {
	b := types.Batch{Source: s.Name()}
	ec := s.Cfg.Email
	if !ec.Enabled {
		return b, nil
	}
	if ec.IMAPHost == "" || ec.Username == "" {
		return b, errors.New("email enabled but missing imap_host/username")
	}
	if s.Password == nil {
		return b, errors.New("email source has no password provider")
	}
	pw, err := s.Password()
	if err != nil {
		return b, err
	}

	c, err := DialAndLogin(ctx, ec.IMAPHost, ec.IMAPPort, ec.Username, pw)
	if err != nil {
		return b, err
	}
	defer LogoutAndClose(c)

	if err := SelectMailbox(c, ec.Mailbox); err != nil {
		return b, err
	}
	msgs, err := FetchUnseen(ctx, c, s.now().Add(-lookback), ec.MaxMessages)
	if err != nil {
		return b, err
	}

	frags, uids := collect(msgs, ec.SearchSubjectAny)
	b.Fragments = frags
	log.Printf("[email] scanned=%d alerts=%d fragments=%d", len(msgs), len(uids), len(frags))

	if len(uids) > 0 {
		b.Finalize = func(ctx context.Context) error {
			c, err := DialAndLogin(ctx, ec.IMAPHost, ec.IMAPPort, ec.Username, pw)
			if err != nil {
				return err
			}
			defer LogoutAndClose(c)
			if err := SelectMailbox(c, ec.Mailbox); err != nil {
				return err
			}
			return MarkSeen(c, uids)
		}
	}
	return b, nil
}

// collect turns matching alert mails into fragments and returns the UIDs of
// the mails that yielded at least one.
func collect(msgs []Message, subjects []string) ([]domain.RawScrapeFragment, []imap.UID) {
	var frags []domain.RawScrapeFragment
	var uids []imap.UID
	seen := map[string]bool{}

	for _, m := range msgs {
		subj, plain, htmlBody := parseRFC822(m.Raw, m.Subject)
		if len(subjects) > 0 && !containsAnyCI(subj, subjects) {
			continue
		}
		if !looksLikeLinkedInJobAlert(m.From, subj, htmlBody+plain) {
			continue
		}
		jobs, err := ParseLinkedInJobAlertHTML(htmlBody)
		if err != nil {
			log.Printf("[email] uid=%d parse: %v", m.UID, err)
			continue
		}
		if len(jobs) == 0 {
			continue
		}
		for _, j := range jobs {
			if seen[j.JobID] {
				continue
			}
			seen[j.JobID] = true
			frags = append(frags, j.Fragment(m.Date))
		}
		uids = append(uids, m.UID)
	}
	return frags, uids
}

func containsAnyCI(s string, any []string) bool {
	ls := strings.ToLower(s)
	for _, a := range any {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" && strings.Contains(ls, a) {
			return true
		}
	}
	return false
}
