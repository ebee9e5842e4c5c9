// Command appsupervisord is the application supervisor daemon: it loads the
// daemon's own ambient configuration, loads the apps/procs configuration
// tree, and supervises every declared app for the lifetime of the process.
package main

func main() {
	Execute()
}
