package help

const ColdstartYAML = `# wordfreq Quick Start

sources:
  url: "--url https://example.com/page (HTML is stripped, text/plain kept as is)"
  default_url: "--default-url (Ukrainian Constitutional Court law, plain text)"
  file: "--file book.txt"
  text: "--text \"the cat sat on the mat\""
  stdin: "cat book.txt | wordfreq count"

extract_modes:
  full: "All visible text of the page (default)"
  article: "Main article only (readability)"
  none: "Raw body, no markup stripping"

commands:
  basic_count: |
    wordfreq count --file book.txt

  top_words_chart: |
    wordfreq count --url https://example.com --top 20 --chart

  more_workers: |
    wordfreq count --file big.txt --workers 16

  skip_stopwords: |
    wordfreq count --file book.txt --skip-stopwords --detect-language

  machine_readable: |
    wordfreq count --file book.txt --format json --output results/book.json

  record_and_list: |
    wordfreq count --file book.txt --record
    wordfreq runs
    wordfreq run 3 --chart

configuration:
  precedence: "flags > WORDFREQ_* env (.env is loaded) > --config YAML > defaults"
  env:
    - WORDFREQ_WORKERS
    - WORDFREQ_TOP
    - WORDFREQ_FORMAT
    - WORDFREQ_EXTRACT
    - WORDFREQ_CONFIG
    - WORDFREQ_DB
    - WORDFREQ_CACHE_DIR
  config_file: |
    workers: 8
    top: 25
    skip_stopwords: true
    max_age: 12h

exit_codes:
  0: "success"
  1: "bad usage or configuration"
  2: "fetch, read or counting failure"
`
