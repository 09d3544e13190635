// Package core provides the backup logic for gitlab-dumper.
//
// A run has three strictly sequential phases:
//
//  1. [Discoverer.Build] pages through the groups listing until an empty page
//     and fetches the projects of every group, producing a flat
//     [model.Catalog]. Any listing failure is fatal.
//  2. [Backup.Execute] creates <destination>/<YYYYMMDD_HHMMSS>.
//  3. [Materializer.Run] creates one directory per group and clones every
//     project into it. Group directory failures are fatal; clone failures are
//     recorded in the [Report] and the run continues.
//
// Functions in this package return errors instead of exiting. Fatal errors are
// returned from Execute; recoverable ones are [CloneFailure] values collected
// in the report. Console output goes through the [Progress] interface so the
// cli package can style it.
package core
