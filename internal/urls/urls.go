package urls

// Documentation URLs for guides and troubleshooting
// All URLs point to the documentation site at https://docs.picotorrent.org/

// RemoteControl is the guide for enabling and using the remote-control
// endpoint, including token handling and certificate trust.
const RemoteControl = "https://docs.picotorrent.org/en/master/remote.html"

// Configuration documents every setting in the configuration file,
// including the websocket_* keys the control server reads.
const Configuration = "https://docs.picotorrent.org/en/master/configuration.html"

// GettingStarted is the quick start guide for new users.
const GettingStarted = "https://docs.picotorrent.org/en/master/"
