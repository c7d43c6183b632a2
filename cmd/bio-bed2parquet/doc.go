/*Command bio-bed2parquet converts the intervals of a BED file into a Parquet
  file with the schema

    message schema {
      REQUIRED BYTE_ARRAY reference_sequence_name (UTF8);
      REQUIRED INT64 start_position;
      REQUIRED INT64 end_position;
    }

  Only the first three BED columns are read.  start_position and
  end_position are 1-based and inclusive, so the BED line "chr1 7 13" is
  stored as (chr1, 8, 13).  Malformed lines are skipped.  The input may be
  gzip-compressed (.gz).

  Usage: bio-bed2parquet input.bed output.parquet
*/
package main
