// Package replay runs a records file programmatically.
//
// It is the library form of "phobia run": records are loaded, released on
// the simulated clock and every request is awaited before Run returns.
//
// # Quick Start
//
//	runner := replay.NewRunner(replay.Config{
//	    File:  "records.json",
//	    Step:  1000,
//	    Scale: 1000,
//	    Unit:  time.Second,
//	})
//	result, err := runner.Run(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Sent %d requests in %s\n", result.Dispatches, result.Duration)
//
// # Time Model
//
// Every start, end and step is divided by Scale with integer division. One
// scaled unit lasts Unit of real time. A record whose scaled window is
// [2, 6) with a scaled step of 2 is released 2 units after the run starts
// and fires at units 2 and 4.
//
// # Failure Handling
//
// Transport failures and non-2xx responses are logged and do not stop the
// run. A body file that cannot be read stops only the record that owns it;
// Run reports it once every other record has finished.
package replay
