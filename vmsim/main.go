// Command vmsim replays a memory trace against a simulated page table and
// reports the page faults of a replacement policy.
package main

import "github.com/sarchlab/vmsim/vmsim/cmd"

func main() {
	cmd.Execute()
}
