// Package discovery finds SSH servers on the local network via mDNS/DNS-SD.
//
// Hosts announce SSH as _ssh._tcp and, when they also offer SFTP, as
// _sftp-ssh._tcp. Both are browsed by default. Announcements for the same
// instance name are aggregated into one Host: addresses seen on several
// interfaces are merged, and an instance is dropped once every address has
// been withdrawn.
package discovery
