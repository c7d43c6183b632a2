/*Package interval reads genomic intervals from BED files.
  Only the first three columns (chrom, chromStart, chromEnd) are
  interpreted.  Coordinates are converted once, on read, from BED's 0-based
  half-open convention to 1-based inclusive Positions.
*/
package interval
