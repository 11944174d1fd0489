package main

// Version is the version of this build of funclock.
var Version = "unknown"
