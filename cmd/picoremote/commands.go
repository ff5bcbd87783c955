package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/picotorrent/picoremote/internal/activation"
	"github.com/picotorrent/picoremote/internal/config"
	"github.com/picotorrent/picoremote/internal/discovery"
	"github.com/picotorrent/picoremote/internal/remote"
	"github.com/picotorrent/picoremote/internal/security"
	"github.com/picotorrent/picoremote/internal/server"
	"github.com/picotorrent/picoremote/internal/urls"
	"github.com/picotorrent/picoremote/internal/version"
)

// Flags shared across commands
var (
	configPath string
)

// serve command flags
var (
	servePort      int
	serveAddress   string
	serveLogLevel  string
	serveAdvertise bool
	instanceName   string
)

// connect command flags
var (
	endpointURL string
	accessToken string
	fingerprint string
	insecure    bool
	sendMessage string
)

// activate command flags
var (
	magnetLinks []string
)

// scan command flags
var (
	scanTimeout int
	scanWait    string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (default: platform config dir)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(certCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(scanCmd)
}

// openStore opens the settings store at the configured path
func openStore() (*config.Store, error) {
	store, err := config.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration: %w", err)
	}
	return store, nil
}

// serveCmd starts the control endpoint
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the secure control endpoint",
	Long: `Start the TLS WebSocket control endpoint.

On first start, an access token and a self-signed certificate are
generated and persisted. The certificate's SHA-256 fingerprint is
printed at startup so clients can pin it.

Only one instance can run per machine: the loopback activation port acts
as the instance lock. If another instance is already running, this
command fails and 'picoremote activate' can be used to hand it work.

Settings reference: ` + urls.Configuration,
	Example: `  # Start with persisted settings
  picoremote serve

  # Start on a custom port with debug logging
  picoremote serve --port 9443 --log-level debug

  # Start and advertise the endpoint over mDNS
  picoremote serve --advertise`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Control port (0 = use configured port)")
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "Bind address (empty = use configured address)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveAdvertise, "advertise", false, "Advertise the endpoint over mDNS")
	serveCmd.Flags().StringVar(&instanceName, "name", "", "mDNS instance name (default: \"PicoTorrent on <hostname>\")")
}

func runServe(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	// Flag values are written back to the settings store
	err = store.Update(func(s *config.Settings) {
		if servePort != 0 {
			s.ListenPort = servePort
		}
		if serveAddress != "" {
			s.ListenAddress = serveAddress
		}
		if serveAdvertise {
			s.Advertise = true
		}
	})
	if err != nil {
		return err
	}

	settings := store.Snapshot()

	// The activation port doubles as the single-instance lock: a second
	// instance fails to bind and is told to use 'activate' instead
	actListener, err := activation.Listen(settings.ActivationPort, func(opts activation.Options) {
		for _, f := range opts.Files {
			fmt.Printf("Activation: add torrent file %s\n", f)
		}
		for _, m := range opts.MagnetLinks {
			fmt.Printf("Activation: add magnet link %s\n", m)
		}
	})
	if err != nil {
		return fmt.Errorf("another instance appears to be running (activation port busy): %w", err)
	}
	defer func() { _ = actListener.Close() }()

	srv, err := server.New(&server.Config{LogLevel: serveLogLevel}, store)
	if err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		return err
	}

	fmt.Printf("Control endpoint listening on wss://%s\n", srv.Addr())
	fmt.Printf("Certificate fingerprint: %s\n", srv.Fingerprint())
	fmt.Printf("Configuration: %s\n", store.Path())

	var advertiser *discovery.Advertiser
	if settings.Advertise {
		name := instanceName
		if name == "" {
			hostname, _ := os.Hostname()
			name = "PicoTorrent on " + hostname
		}
		advertiser, err = discovery.Advertise(name, settings.ListenPort, version.Version, srv.Fingerprint())
		if err != nil {
			// Advertisement is best-effort; the endpoint stays reachable
			fmt.Fprintf(os.Stderr, "Warning: mDNS advertisement failed: %v\n", err)
		}
	}

	// Block until interrupted
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down...")

	if advertiser != nil {
		advertiser.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

// tokenCmd manages the shared access token
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the access token",
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the provisioned access token",
	Long: `Show the access token remote-control clients must present.

If no token has been provisioned yet, one is generated and persisted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		token, err := security.GetOrCreateToken(store)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

var tokenResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Generate and persist a new access token",
	Long: `Replace the access token with a freshly generated one.

Clients holding the old token are denied on their next handshake.
Connections that are already open stay open; admission happens only
at handshake time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		token, err := security.GenerateToken(security.TokenLength)
		if err != nil {
			return err
		}
		err = store.Update(func(s *config.Settings) {
			s.AccessToken = token
		})
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenShowCmd)
	tokenCmd.AddCommand(tokenResetCmd)
}

// certCmd manages the TLS certificate
var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Manage the TLS certificate",
}

var certInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show certificate details",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		certFile, err := certificatePath(store)
		if err != nil {
			return err
		}

		material, err := security.LoadMaterial(certFile, store.Snapshot().CertificatePassword)
		if err != nil {
			return err
		}

		cert := material.Certificate
		fmt.Printf("File:        %s\n", certFile)
		fmt.Printf("Subject:     %s\n", cert.Subject)
		fmt.Printf("Not before:  %s\n", cert.NotBefore.Format(time.RFC3339))
		fmt.Printf("Not after:   %s\n", cert.NotAfter.Format(time.RFC3339))
		fmt.Printf("Fingerprint: %s\n", material.Fingerprint())
		return nil
	},
}

var certRegenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Replace the certificate with a freshly generated one",
	Long: `Delete the current certificate file and generate a new self-signed
certificate in its place.

Clients pinning the old fingerprint must re-pin the new one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		certFile, err := certificatePath(store)
		if err != nil {
			return err
		}

		if err := os.Remove(certFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove old certificate: %w", err)
		}

		material, err := security.EnsureCertificate(certFile, "")
		if err != nil {
			return err
		}

		fmt.Printf("New fingerprint: %s\n", material.Fingerprint())
		return nil
	},
}

func init() {
	certCmd.AddCommand(certInfoCmd)
	certCmd.AddCommand(certRegenerateCmd)
}

// certificatePath resolves the configured certificate file path
func certificatePath(store *config.Store) (string, error) {
	settings := store.Snapshot()
	if settings.CertificateFile != "" {
		return settings.CertificateFile, nil
	}
	return config.DefaultCertificatePath()
}

// connectCmd smoke-tests a running endpoint
var connectCmd = &cobra.Command{
	Use:   "connect [url]",
	Short: "Connect to a control endpoint",
	Long: `Connect to a running control endpoint and verify the handshake.

The access token is read from the --token flag, or prompted for if
absent. Certificate trust comes from --fingerprint pinning, or
--insecure for loopback testing.

See ` + urls.RemoteControl + ` for the token and trust model.`,
	Example: `  # Smoke-test the local endpoint
  picoremote connect wss://127.0.0.1:7070 --insecure

  # Connect with a pinned certificate fingerprint
  picoremote connect wss://192.168.1.24:7070 --fingerprint ab12...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().StringVar(&endpointURL, "url", "", "Endpoint URL (alternative to the positional argument)")
	connectCmd.Flags().StringVar(&accessToken, "token", "", "Access token (prompted for if not given)")
	connectCmd.Flags().StringVar(&fingerprint, "fingerprint", "", "Pinned SHA-256 certificate fingerprint (hex)")
	connectCmd.Flags().BoolVar(&insecure, "insecure", false, "Skip certificate verification")
	connectCmd.Flags().StringVar(&sendMessage, "send", "", "Message to send after connecting")
}

func runConnect(cmd *cobra.Command, args []string) error {
	url := endpointURL
	if len(args) > 0 {
		url = args[0]
	}
	if url == "" {
		return fmt.Errorf("an endpoint URL is required (positional argument or --url)")
	}
	if !strings.HasPrefix(url, "wss://") {
		return fmt.Errorf("endpoint URL must use the wss:// scheme")
	}

	token := accessToken
	if token == "" {
		fmt.Fprint(os.Stderr, "Access token: ")
		input, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(string(input))
	}

	client := remote.NewClientWithURL(url)
	client.Token = token
	client.Fingerprint = fingerprint
	client.Insecure = insecure

	conn, err := client.Connect(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	fmt.Printf("Connected to %s\n", url)

	if err := conn.Ping(); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	fmt.Println("Ping OK")

	if sendMessage != "" {
		if err := conn.Send([]byte(sendMessage)); err != nil {
			return fmt.Errorf("send failed: %w", err)
		}
		reply, err := conn.Receive()
		if err != nil {
			return fmt.Errorf("receive failed: %w", err)
		}
		fmt.Printf("Reply: %s\n", reply)
	}

	return nil
}

// activateCmd forwards work to the running instance
var activateCmd = &cobra.Command{
	Use:   "activate [torrent files...]",
	Short: "Hand torrent files or magnet links to the running instance",
	Long: `Forward torrent files and magnet links to the instance that holds
the activation port, instead of starting a second instance.`,
	Example: `  # Hand a torrent file to the running instance
  picoremote activate ubuntu.torrent

  # Hand over a magnet link
  picoremote activate --magnet "magnet:?xt=urn:btih:..."`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && len(magnetLinks) == 0 {
			return fmt.Errorf("nothing to forward: give torrent files or --magnet links")
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		settings := store.Snapshot()

		err = activation.Activate(settings.ActivationPort, activation.Options{
			Files:       args,
			MagnetLinks: magnetLinks,
		})
		if err != nil {
			return fmt.Errorf("no running instance to activate: %w", err)
		}

		fmt.Printf("Forwarded %d file(s) and %d magnet link(s)\n", len(args), len(magnetLinks))
		return nil
	},
}

func init() {
	activateCmd.Flags().StringArrayVar(&magnetLinks, "magnet", nil, "Magnet link to forward (repeatable)")
}

// scanCmd discovers advertised endpoints on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for control endpoints on the network",
	Long: `Scan for advertised control endpoints using mDNS/DNS-SD discovery.

Endpoints started with --advertise announce their address, version, and
certificate fingerprint, which this command lists.`,
	Example: `  # Scan for 10 seconds (default)
  picoremote scan

  # Quick 3-second scan
  picoremote scan --timeout 3

  # Block until a named endpoint appears
  picoremote scan --wait "PicoTorrent on seedbox"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if scanWait != "" {
			return runScanWait(cmd.Context(), scanWait)
		}

		fmt.Printf("Scanning for control endpoints (timeout: %ds)...\n\n", scanTimeout)

		instances, err := discovery.Scan(time.Duration(scanTimeout) * time.Second)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if len(instances) == 0 {
			fmt.Println("No endpoints found.")
			fmt.Println("\nEndpoints only appear here when started with --advertise.")
			return nil
		}

		fmt.Printf("Found %d endpoint(s):\n\n", len(instances))

		for i, instance := range instances {
			fmt.Printf("%d. %s\n", i+1, instance.Name)
			fmt.Printf("   URL:         %s\n", instance.URL())
			if v := instance.Version(); v != "" {
				fmt.Printf("   Version:     %s\n", v)
			}
			if fp := instance.Fingerprint(); fp != "" {
				fmt.Printf("   Fingerprint: %s\n", fp)
			}
			fmt.Println()
		}

		fmt.Println("Use 'picoremote connect <url> --fingerprint <fp>' to connect")
		return nil
	},
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
	scanCmd.Flags().StringVar(&scanWait, "wait", "", "Wait for an endpoint with this instance name")
}

// runScanWait blocks until the named endpoint is advertised or the
// scan timeout expires.
func runScanWait(ctx context.Context, name string) error {
	fmt.Printf("Waiting for endpoint %q (timeout: %ds)...\n", name, scanTimeout)

	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(scanTimeout) * time.Second

	instance, err := scanner.WaitForInstanceWithContext(ctx, name)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n", instance.Name)
	fmt.Printf("   URL:         %s\n", instance.URL())
	if v := instance.Version(); v != "" {
		fmt.Printf("   Version:     %s\n", v)
	}
	if fp := instance.Fingerprint(); fp != "" {
		fmt.Printf("   Fingerprint: %s\n", fp)
	}
	return nil
}
