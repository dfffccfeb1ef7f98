// Command check-email runs addresses through the same classification and
// DNS checks the admission pipeline uses, without touching any list.
//
//	check-email [--list=<list id>] addr@example.com [...]
//
// With DATABASE_URL and --list set, the list and global blacklists are
// checked too.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/ignite/listguard/internal/config"
	"github.com/ignite/listguard/internal/emailcheck"
	"github.com/ignite/listguard/internal/repository/postgres"
	"github.com/ignite/listguard/internal/service/admission"
)

type checkResult struct {
	Name    string
	Passed  bool
	Detail  string
	Elapsed time.Duration
}

type blacklistChecker interface {
	IsBlacklisted(ctx context.Context, email, listID string) (bool, error)
}

type checker struct {
	classifier admission.Classifier
	dns        admission.DomainChecker
	blacklist  blacklistChecker
	listID     string
}

func main() {
	listID := ""
	var emails []string
	for _, a := range os.Args[1:] {
		if strings.HasPrefix(a, "--list=") {
			listID = strings.TrimPrefix(a, "--list=")
			continue
		}
		emails = append(emails, a)
	}
	if len(emails) == 0 {
		fmt.Fprintln(os.Stderr, "usage: check-email [--list=<list id>] email [email...]")
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}
	classifier, err := emailcheck.BuildClassifier(cfg.Admission.FreeProviders, cfg.Admission.DisposableProviders,
		cfg.Admission.FreeProvidersFile, cfg.Admission.DisposableProvidersFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load provider lists: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c := &checker{
		classifier: classifier,
		dns:        emailcheck.NewDNSValidator(net.DefaultResolver, cfg.Admission.DNSTimeout()),
		listID:     listID,
	}
	if cfg.Database.URL != "" && listID != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: failed to open database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		c.blacklist = postgres.NewBlacklistRepo(db)
	}

	allPassed := true
	for _, email := range emails {
		fmt.Println("=========================================================")
		fmt.Printf(" %s\n", email)
		fmt.Println("=========================================================")
		for i, r := range c.run(ctx, email) {
			status := "PASS"
			if !r.Passed {
				status = "FAIL"
				allPassed = false
			}
			fmt.Printf("  [%d] %-35s %s  (%s)\n", i+1, r.Name, status, r.Elapsed.Round(time.Millisecond))
			if r.Detail != "" {
				fmt.Printf("      %s\n", r.Detail)
			}
		}
	}
	if !allPassed {
		os.Exit(1)
	}
}

// run returns one result per check. A syntax failure ends the run early.
func (c *checker) run(ctx context.Context, email string) []checkResult {
	start := time.Now()
	addr, err := emailcheck.Parse(email)
	if err != nil {
		return []checkResult{{Name: "Syntax", Detail: err.Error(), Elapsed: time.Since(start)}}
	}
	results := []checkResult{{Name: "Syntax", Passed: true, Detail: "normalized=" + addr.Email, Elapsed: time.Since(start)}}

	start = time.Now()
	free := c.classifier.IsFreeProvider(addr.Domain)
	results = append(results, checkResult{
		Name:    "Business domain",
		Passed:  !free,
		Detail:  detailIf(free, addr.Domain+" is a free provider"),
		Elapsed: time.Since(start),
	})

	start = time.Now()
	disposable := c.classifier.IsDisposable(addr.Domain)
	results = append(results, checkResult{
		Name:    "Not disposable",
		Passed:  !disposable,
		Detail:  detailIf(disposable, addr.Domain+" is a disposable provider"),
		Elapsed: time.Since(start),
	})

	start = time.Now()
	exists := c.dns.DomainExists(ctx, addr.Domain)
	results = append(results, checkResult{
		Name:    "Domain exists",
		Passed:  exists,
		Detail:  detailIf(!exists, "no NS or A records"),
		Elapsed: time.Since(start),
	})

	start = time.Now()
	mx := c.dns.HasMailRecords(ctx, addr.Domain)
	results = append(results, checkResult{
		Name:    "Mail records",
		Passed:  mx,
		Detail:  detailIf(!mx, "no MX or A records"),
		Elapsed: time.Since(start),
	})

	if c.blacklist != nil {
		start = time.Now()
		listed, err := c.blacklist.IsBlacklisted(ctx, addr.Email, c.listID)
		r := checkResult{Name: "Not blacklisted", Passed: err == nil && !listed, Elapsed: time.Since(start)}
		switch {
		case err != nil:
			r.Detail = fmt.Sprintf("query error: %v", err)
		case listed:
			r.Detail = "blacklisted globally or on list " + c.listID
		}
		results = append(results, r)
	}
	return results
}

func detailIf(cond bool, msg string) string {
	if cond {
		return msg
	}
	return ""
}
