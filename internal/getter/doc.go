// Package getter provides a uniform abstraction for executing commands
// against scheduler-bearing hosts.
//
// A Getter is bound to one host's identifying data and knows how to
// reach it: a Kubernetes pod, a Docker container, a remote machine over
// SSH, or the local machine. Callers hand any Getter an opaque Command
// and receive the backend's result without knowing the transport.
//
// The backends are a closed set, selected through Resolve:
//
//   - KubernetesGetter: execs into a named pod container
//   - DockerGetter: execs into a container via the local daemon
//   - SSHGetter: runs the command in a remote shell session
//   - LocalGetter: runs the command as a local process
//
// Long-lived backend handles (the Kubernetes clientset, the Docker
// daemon client) are established once per process through Sessions and
// shared by every getter of that backend type. Getters never retry:
// every failure propagates to the caller as a classified error.
package getter
