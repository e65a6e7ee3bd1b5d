// Package common provides the configuration and logging shared by the binser
// command line tools and libraries.
//
// Key Components:
//
//   - Config: settings of the command line interface (log level, optional
//     schema manifest, metrics output and bench parameters) with a sectioned
//     String() used when printing the active configuration.
//
//   - Logger: custom logging implementation plugged into the dragonboat logger
//     package, which every component uses through logger.GetLogger(name).
//     InitLoggers installs the factory and applies the configured level to the
//     registry, resolver, adapter, serializer and manifest loggers.
package common
