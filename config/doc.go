// Package config loads fsproxy settings.
//
// Values are layered: Default, then an optional YAML file, then
// environment variables named FSPROXY_<SECTION>_<FIELD>, for example
// FSPROXY_SERVER_LISTEN or FSPROXY_SESSION_OBJECT_LIMIT. LoadFile
// validates the result.
package config
