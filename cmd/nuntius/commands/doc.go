// Package commands wires the nuntius CLI. Every command opens the store
// from the config file in PersistentPreRunE and closes it afterwards.
package commands
