package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/mdlayher/ralink"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// interfacesCmd lists wireless interfaces.
type interfacesCmd struct{}

func (*interfacesCmd) Name() string     { return "interfaces" }
func (*interfacesCmd) Synopsis() string { return "lists wireless interfaces" }
func (*interfacesCmd) Usage() string {
	return `ralinkctl interfaces

`
}

func (*interfacesCmd) SetFlags(_ *flag.FlagSet) {}

func (*interfacesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ifis, err := ralink.Interfaces()
	if err != nil {
		klog.Errorf("failed to list interfaces: %v", err)
		return subcommands.ExitFailure
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tADDRESS\tPHY\tTYPE")
	for _, ifi := range ifis {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", ifi.Index, ifi.Name, ifi.HardwareAddr, ifi.PHY, ifi.Type)
	}
	if err := tw.Flush(); err != nil {
		klog.Errorf("failed to write output: %v", err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

// attachFlags are the flags shared by commands which attach to an
// interface.
type attachFlags struct {
	ifname string
	apScan int
}

func (a *attachFlags) set(f *flag.FlagSet) {
	f.StringVar(&a.ifname, "i", "ra0", "wireless interface to attach to")
	f.IntVar(&a.apScan, "ap_scan", 1, "supplicant ap_scan policy; 1 lets the supplicant select access points")
}

// scanCmd requests a scan and prints its results.
type scanCmd struct {
	attachFlags
	ssid    string
	timeout time.Duration
}

func (*scanCmd) Name() string     { return "scan" }
func (*scanCmd) Synopsis() string { return "scans for access points" }
func (*scanCmd) Usage() string {
	return `ralinkctl scan [-i ra0] [-ssid name]

`
}

func (c *scanCmd) SetFlags(f *flag.FlagSet) {
	c.attachFlags.set(f)
	f.StringVar(&c.ssid, "ssid", "", "SSID to probe for; empty scans for every network")
	f.DurationVar(&c.timeout, "timeout", 10*time.Second, "how long to wait for scan results")
}

func (c *scanCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	done := make(chan struct{}, 1)
	client, err := ralink.New(c.ifname, &ralink.Config{
		APScan: c.apScan,
		Handler: ralink.HandlerFunc(func(e ralink.Event) {
			if e.Kind != ralink.EventScanResults {
				return
			}
			select {
			case done <- struct{}{}:
			default:
			}
		}),
	})
	if err != nil {
		klog.Errorf("failed to attach to %s: %v", c.ifname, err)
		return subcommands.ExitFailure
	}
	defer client.Close()

	if err := client.Scan([]byte(c.ssid)); err != nil {
		// Results are still announced after the scan timeout.
		klog.Warningf("scan request failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	select {
	case <-done:
	case <-ctx.Done():
		klog.Errorf("timed out waiting for scan results")
		return subcommands.ExitFailure
	}

	results, err := client.ScanResults()
	if err != nil {
		klog.Errorf("failed to get scan results: %v", err)
		return subcommands.ExitFailure
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "BSSID\tFREQ\tCHAN\tLEVEL\tPRIVACY\tSSID")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%t\t%q\n",
			r.BSSID, r.Frequency, ralink.FrequencyToChannel(r.Frequency), r.Level,
			r.Capabilities&ralink.CapabilityPrivacy != 0, r.SSID())
	}
	if err := tw.Flush(); err != nil {
		klog.Errorf("failed to write output: %v", err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

// monitorCmd prints driver events until interrupted.
type monitorCmd struct {
	attachFlags
	metricsAddr string
}

func (*monitorCmd) Name() string     { return "monitor" }
func (*monitorCmd) Synopsis() string { return "prints driver events" }
func (*monitorCmd) Usage() string {
	return `ralinkctl monitor [-i ra0] [-metrics_addr :9120]

`
}

func (c *monitorCmd) SetFlags(f *flag.FlagSet) {
	c.attachFlags.set(f)
	f.StringVar(&c.metricsAddr, "metrics_addr", "", "address to serve Prometheus metrics on; empty disables")
}

func (c *monitorCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	client, err := ralink.New(c.ifname, &ralink.Config{
		APScan:     c.apScan,
		Registerer: reg,
		Handler:    ralink.HandlerFunc(printEvent),
	})
	if err != nil {
		klog.Errorf("failed to attach to %s: %v", c.ifname, err)
		return subcommands.ExitFailure
	}

	eg, ctx := errgroup.WithContext(ctx)
	if c.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{
			Addr:              c.metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		eg.Go(func() error {
			klog.Infof("serving metrics on %s", c.metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			return srv.Close()
		})
	}
	eg.Go(func() error {
		<-ctx.Done()
		return client.Close()
	})

	klog.Infof("monitoring %s", c.ifname)
	if err := eg.Wait(); err != nil {
		klog.Errorf("monitor failed: %v", err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

func printEvent(e ralink.Event) {
	switch e.Kind {
	case ralink.EventMICFailure:
		fmt.Printf("%s unicast=%t\n", e.Kind, e.Unicast)
	case ralink.EventAssociationInfo:
		fmt.Printf("%s req=% x resp=% x\n", e.Kind, e.ReqIEs, e.RespIEs)
	case ralink.EventPMKIDCandidate:
		fmt.Printf("%s bssid=%s index=%d preauth=%t\n",
			e.Kind, e.Candidate.BSSID, e.Candidate.Index, e.Candidate.Preauth)
	case ralink.EventInterfaceStatus:
		fmt.Printf("%s interface=%s\n", e.Kind, e.Interface)
	default:
		fmt.Println(e.Kind)
	}
}
