// Vigil - Workspace Security Auditor
// Fetch. Evaluate. Report.
package main

func main() {
	Execute()
}
