// Package report gathers getters and assembles their probe results
// into a single report document.
//
// A run has three phases: gather (hosts file or autodiscovery flags
// produce one getter per target host), probe (every getter runs the
// checks configured for its host type, fanned out across a bounded
// worker group), and assemble (results nest under
// {host_type: {report_key: {check: result}}}, alongside the optional
// cluster-info and verify blocks and run metadata).
//
// A failing check records its error string under the check key instead
// of aborting the run; only gathering failures are fatal.
package report
