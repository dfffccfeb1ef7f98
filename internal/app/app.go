// Package app assembles the services behind the HTTP API from a set of
// repositories and infrastructure adapters.
package app

import (
	"github.com/ignite/listguard/internal/api"
	"github.com/ignite/listguard/internal/export"
	"github.com/ignite/listguard/internal/mail"
	"github.com/ignite/listguard/internal/pkg/distlock"
	"github.com/ignite/listguard/internal/repository/memory"
	"github.com/ignite/listguard/internal/repository/postgres"
	"github.com/ignite/listguard/internal/service/account"
	"github.com/ignite/listguard/internal/service/admission"
	"github.com/ignite/listguard/internal/service/analytics"
	"github.com/ignite/listguard/internal/service/blacklist"
	"github.com/ignite/listguard/internal/service/list"
	"github.com/ignite/listguard/internal/service/subscriber"
	"github.com/ignite/listguard/internal/service/template"
)

// Repos is one implementation of every repository.
type Repos struct {
	Blacklist   blacklist.Repository
	Subscribers subscriber.Repository
	Lists       list.Repository
	Analytics   analytics.Repository
	Templates   template.Repository
	Accounts    account.Repository
}

// MemoryRepos returns views over an in-memory store.
func MemoryRepos(st *memory.Store) Repos {
	return Repos{
		Blacklist:   st.Blacklist(),
		Subscribers: st.Subscribers(),
		Lists:       st.Lists(),
		Analytics:   st.Analytics(),
		Templates:   st.Templates(),
		Accounts:    st.Accounts(),
	}
}

// PostgresRepos adapts the Postgres repositories.
func PostgresRepos(r *postgres.Repos) Repos {
	return Repos{
		Blacklist:   r.Blacklist,
		Subscribers: r.Subscribers,
		Lists:       r.Lists,
		Analytics:   r.Analytics,
		Templates:   r.Templates,
		Accounts:    r.Accounts,
	}
}

// Options holds the infrastructure adapters. Mailer, Locker, Metrics and
// Archiver may be nil.
type Options struct {
	Links              *subscriber.Links
	Classifier         admission.Classifier
	DNS                admission.DomainChecker
	Locker             distlock.Locker
	Mailer             mail.Mailer
	Metrics            *admission.Metrics
	Archiver           *export.Archiver
	BlacklistOnFailure bool
}

// Build wires the services.
func Build(r Repos, o Options) api.Services {
	bl := blacklist.NewService(r.Blacklist)
	subs := subscriber.NewService(r.Subscribers, bl, o.Links)
	stats := analytics.NewService(r.Analytics, bl)
	accounts := account.NewService(r.Accounts)
	renderer := template.NewRenderer()

	opts := []admission.Option{admission.WithRecorder(stats)}
	if o.Locker != nil {
		opts = append(opts, admission.WithLocker(o.Locker))
	}
	if o.Metrics != nil {
		opts = append(opts, admission.WithMetrics(o.Metrics))
	}
	var tmplMailer template.Mailer
	if o.Mailer != nil {
		tmplMailer = o.Mailer
		opts = append(opts, admission.WithNotifier(mail.NewVerificationNotifier(o.Mailer, renderer, o.Links)))
	}
	pipeline := admission.NewPipeline(admission.Deps{
		Blacklist:   bl,
		Subscribers: subs,
		Classifier:  o.Classifier,
		DNS:         o.DNS,
	}, opts...)

	return api.Services{
		Lists:       list.NewService(r.Lists, accounts, pipeline, o.BlacklistOnFailure),
		Subscribers: subs,
		Admission:   pipeline,
		Blacklist:   bl,
		Analytics:   stats,
		Templates:   template.NewService(r.Templates, renderer, tmplMailer),
		Accounts:    accounts,
		Archiver:    o.Archiver,
	}
}
