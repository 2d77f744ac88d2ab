package scraper

// listing scrapers here are render-then-parse: every method takes a fully
// rendered HTML document and transforms it into structured records, the
// output is dependent solely on the input document.
// EXCEPT for the rendering backend, that is an implied input for each run.

// nothing in lib/scrapers performs network IO. fetching (and the retry,
// fallback and challenge handling that comes with it) lives in lib/render,
// parsing lives here. that split is what makes the parsers testable against
// saved fixture documents.

// each parsing method generally has this structure:
// 1. parse the document with goquery.
// 2. try the embedded JSON payloads first. sites that render server-side
//    ship the complete record set in a script tag and that data is richer
//    and more stable than the markup.
// 3. fall back to DOM strategy chains (see lib/extract) when the payload
//    is absent or malformed.
// 4. normalize values and fill the documented sentinels for whatever is
//    still missing.

// the scraper part is then the code that guides the program through the
// acquiring of all the information you want in the representation you want.
// it is the thing that combines summary rows and detail documents into one
// data model. (see services/harvest)
