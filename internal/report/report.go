package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/periscope-tools/periscope/internal/getter"
	"github.com/periscope-tools/periscope/internal/logging"
)

// Coordinator drives a report run: it gathers getters, fans probe
// commands out across them, and assembles the report document.
type Coordinator struct {
	Sessions *getter.Sessions
	Logger   *slog.Logger

	// Parallelism bounds the number of in-flight checks. Zero means
	// one worker per CPU; one disables concurrency.
	Parallelism int

	// Version is stamped into the report metadata.
	Version string
}

// GatherOptions selects where target hosts come from. HostsFile wins
// when set; otherwise the flags drive autodiscovery.
type GatherOptions struct {
	UseLocal      bool
	UseDocker     bool
	UseKubernetes bool
	HostsFile     string
}

// RunOptions enables the aggregate blocks of the report.
type RunOptions struct {
	ClusterInfo bool
	Verify      bool
}

// Gather produces one getter per target host, either from a hosts file
// or from flag-driven autodiscovery.
func (c *Coordinator) Gather(ctx context.Context, opts GatherOptions) ([]getter.Getter, error) {
	if opts.HostsFile != "" {
		c.Logger.Info("parsing hosts file", slog.String("path", opts.HostsFile))
		hosts, err := LoadHostsFile(opts.HostsFile)
		if err != nil {
			return nil, err
		}
		return c.fromHostsFile(ctx, hosts)
	}

	var getters []getter.Getter

	if opts.UseKubernetes {
		discovered, err := c.discoverKubernetes(ctx)
		if err != nil {
			return nil, err
		}
		getters = append(getters, discovered...)
	}

	if opts.UseDocker {
		discovered, err := c.discoverDocker(ctx)
		if err != nil {
			return nil, err
		}
		getters = append(getters, discovered...)
	}

	if opts.UseLocal {
		getters = append(getters, getter.NewLocalGetter(c.Logger))
	}

	return getters, nil
}

// fromHostsFile builds getters for every entry in the hosts file.
// Unknown host-type keys are logged and skipped; an empty entry list
// for a discoverable backend falls back to autodiscovery, and a bare
// "local" key adds the local getter.
func (c *Coordinator) fromHostsFile(ctx context.Context, hosts HostsFile) ([]getter.Getter, error) {
	// Deterministic gathering order regardless of map iteration.
	hostTypes := make([]string, 0, len(hosts))
	for hostType := range hosts {
		hostTypes = append(hostTypes, hostType)
	}
	sort.Strings(hostTypes)

	var getters []getter.Getter
	for _, rawType := range hostTypes {
		hostType := getter.HostType(rawType)
		entries := hosts[rawType]
		c.Logger.Info("discovered hosts in hosts file",
			logging.HostType(rawType), slog.Int("count", len(entries)))

		ctor, err := getter.Resolve(hostType)
		if err != nil {
			if errors.Is(err, getter.ErrUnsupportedHostType) {
				c.Logger.Warn("unable to understand host type, skipping", logging.HostType(rawType))
				continue
			}
			return nil, err
		}

		if len(entries) == 0 {
			switch hostType {
			case getter.HostTypeKubernetes:
				discovered, err := c.discoverKubernetes(ctx)
				if err != nil {
					return nil, err
				}
				getters = append(getters, discovered...)
			case getter.HostTypeDocker:
				discovered, err := c.discoverDocker(ctx)
				if err != nil {
					return nil, err
				}
				getters = append(getters, discovered...)
			case getter.HostTypeLocal:
				getters = append(getters, getter.NewLocalGetter(c.Logger))
			}
			continue
		}

		for _, entry := range entries {
			if err := validateHost(hostType, entry); err != nil {
				return nil, err
			}
			built, err := ctor(c.Sessions, entry)
			if err != nil {
				return nil, err
			}
			getters = append(getters, built)
		}
	}
	return getters, nil
}

func (c *Coordinator) discoverKubernetes(ctx context.Context) ([]getter.Getter, error) {
	c.Logger.Info("attempting autodiscovery", logging.HostType(string(getter.HostTypeKubernetes)))
	session, err := c.Sessions.Kube()
	if err != nil {
		return nil, err
	}
	records, err := session.Autodiscover(ctx)
	if err != nil {
		return nil, err
	}
	c.Logger.Info("discovered scheduler pods", slog.Int("count", len(records)))

	getters := make([]getter.Getter, 0, len(records))
	for _, record := range records {
		getters = append(getters, getter.NewKubernetesGetter(
			session, c.Logger, record.Name, record.Namespace, record.Container))
	}
	return getters, nil
}

func (c *Coordinator) discoverDocker(ctx context.Context) ([]getter.Getter, error) {
	c.Logger.Info("attempting autodiscovery", logging.HostType(string(getter.HostTypeDocker)))
	session, err := c.Sessions.Docker()
	if err != nil {
		return nil, err
	}
	records, err := session.Autodiscover(ctx)
	if err != nil {
		return nil, err
	}
	c.Logger.Info("discovered scheduler containers", slog.Int("count", len(records)))

	getters := make([]getter.Getter, 0, len(records))
	for _, record := range records {
		getters = append(getters, getter.NewDockerGetter(session, c.Logger, record.ContainerID))
	}
	return getters, nil
}

// Run executes every configured check against every getter and
// assembles the report. Check failures are recorded as their error
// string under the check key; the run itself only fails on aggregate
// blocks (cluster info, verify) or context cancellation.
func (c *Coordinator) Run(ctx context.Context, getters []getter.Getter, probes Probes, opts RunOptions) (map[string]any, error) {
	doc := map[string]any{
		"metadata": map[string]any{
			"generated_at": time.Now().UTC().Format(time.RFC3339),
			"run_id":       uuid.NewString(),
			"tool_version": c.Version,
		},
	}

	if opts.ClusterInfo {
		session, err := c.Sessions.Kube()
		if err != nil {
			return nil, err
		}
		info, err := session.ClusterInfo(ctx)
		if err != nil {
			return nil, fmt.Errorf("cluster info: %w", err)
		}
		doc["kubernetes_cluster_info"] = info
	}

	if opts.Verify {
		verified, err := getter.NewLocalGetter(c.Logger).Verify(ctx)
		if err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
		doc["verify"] = verified
	}

	limit := c.Parallelism
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	var mu sync.Mutex
	sections := map[string]map[string]map[string]any{}

	for _, g := range getters {
		checks := probes[g.HostType()]
		hostType := string(g.HostType())
		reportKey := g.ReportKey()

		for name, cmd := range checks {
			group.Go(func() error {
				logger := logging.WithHost(c.Logger, hostType, reportKey)
				logger.Info("fetching check", logging.Check(name))

				start := time.Now()
				value, err := g.Get(groupCtx, cmd)
				if err != nil {
					logger.Error("check failed", logging.Check(name), logging.Err(err))
					value = err.Error()
				} else {
					logger.Debug("check complete", logging.Check(name), logging.Duration(time.Since(start)))
				}

				mu.Lock()
				defer mu.Unlock()
				section, ok := sections[hostType]
				if !ok {
					section = map[string]map[string]any{}
					sections[hostType] = section
				}
				host, ok := section[reportKey]
				if !ok {
					host = map[string]any{}
					section[reportKey] = host
				}
				host[name] = value
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	for hostType, section := range sections {
		doc[hostType] = section
	}
	return doc, nil
}
