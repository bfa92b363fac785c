// Package compress opens source tables that may be stored compressed.
//
// Source tables are frequently shipped as gzip, zstd, S2 or LZ4 streams. The
// converter only ever reads them; every binary output is written uncompressed.
// The compression of a file is inferred from its suffix:
//
//	r, err := compress.Open("data/tf_activity.csv.zst")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
// Resolve finds whichever variant of a table exists on disk, trying the plain
// name first and then each supported suffix in format.SourceSuffixes order.
package compress
